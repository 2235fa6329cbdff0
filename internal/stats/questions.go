package stats

// Questions for which a lower mean ranks a state better.
var QuestionsBestIsMin = []string{
	"Percent of adults aged 18 years and older who have an overweight classification",
	"Percent of adults aged 18 years and older who have obesity",
	"Percent of adults who engage in no leisure-time physical activity",
	"Percent of adults who report consuming fruit less than one time daily",
	"Percent of adults who report consuming vegetables less than one time daily",
}

// Questions for which a higher mean ranks a state better.
var QuestionsBestIsMax = []string{
	"Percent of adults who achieve at least 150 minutes a week of moderate-intensity aerobic physical activity or 75 minutes a week of vigorous-intensity aerobic activity (or an equivalent combination)",
	"Percent of adults who achieve at least 150 minutes a week of moderate-intensity aerobic physical activity or 75 minutes a week of vigorous-intensity aerobic physical activity and engage in muscle-strengthening activities on 2 or more days a week",
	"Percent of adults who achieve at least 300 minutes a week of moderate-intensity aerobic physical activity or 150 minutes a week of vigorous-intensity aerobic activity (or an equivalent combination)",
	"Percent of adults who engage in muscle-strengthening activities on 2 or more days a week",
}

var (
	bestIsMin = toSet(QuestionsBestIsMin)
	bestIsMax = toSet(QuestionsBestIsMax)
)

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, s := range items {
		out[s] = struct{}{}
	}
	return out
}

func IsKnownQuestion(q string) bool {
	_, minOK := bestIsMin[q]
	_, maxOK := bestIsMax[q]
	return minOK || maxOK
}

func lowerIsBetter(q string) bool {
	_, ok := bestIsMin[q]
	return ok
}
