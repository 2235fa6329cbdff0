// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/{query}": {
            "post": {
                "description": "Queues the named query as a background job and returns its id. Poll /api/get_results/{job_id}.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["queries"],
                "summary": "Submit a statistics query",
                "parameters": [
                    {
                        "type": "string",
                        "description": "query name",
                        "name": "query",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "question (and state for per-state queries)",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/httptransport.queryRequestDTO"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.submitResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httptransport.apiError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/get_results/{job_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get job status and result",
                "parameters": [
                    {"type": "integer", "description": "job id", "name": "job_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.resultResp"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/graceful_shutdown": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Stop accepting jobs and wait for queued jobs to finish",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.messageResp"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httptransport.apiError"}}
                }
            }
        },
        "/api/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List all jobs with their status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {"$ref": "#/definitions/httptransport.jobStatusResp"}
                        }
                    }
                }
            }
        },
        "/api/num_jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Number of submitted jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httptransport.numJobsResp"}}
                }
            }
        }
    },
    "definitions": {
        "httptransport.apiError": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "httptransport.queryRequestDTO": {
            "type": "object",
            "properties": {"question": {"type": "string"}, "state": {"type": "string"}}
        },
        "httptransport.submitResp": {
            "type": "object",
            "properties": {"job_id": {"type": "integer"}}
        },
        "httptransport.resultResp": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "data": {}}
        },
        "httptransport.jobStatusResp": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "httptransport.numJobsResp": {
            "type": "object",
            "properties": {"num_jobs": {"type": "integer"}}
        },
        "httptransport.messageResp": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Statistics Service API",
	Description:      "Asynchronous statistics queries over the nutrition, physical activity and obesity dataset.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
