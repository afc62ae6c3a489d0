// Package docs registers the OpenAPI description of the pipeline API.
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
        "/pipelines": {
            "get": {
                "description": "Get all runs with their current status, newest first",
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "List pipeline runs",
                "responses": {
                    "200": {"description": "Runs", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.RunInfo"}}},
                    "500": {"description": "Internal server error", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "post": {
                "description": "Start a run of the job-market pipeline. The body may override any field of the server configuration.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "Submit a pipeline run",
                "parameters": [
                    {"description": "Configuration overrides", "name": "config", "in": "body", "schema": {"$ref": "#/definitions/model.PipelineConfig"}}
                ],
                "responses": {
                    "202": {"description": "Run accepted", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid configuration", "schema": {"type": "object", "additionalProperties": true}},
                    "429": {"description": "Too many submissions", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/pipelines/{id}": {
            "get": {
                "description": "Retrieve the configuration, status and report of a run",
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "Get pipeline run",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Run details", "schema": {"$ref": "#/definitions/store.RunInfo"}},
                    "404": {"description": "Run not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/pipelines/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "Get pipeline errors",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Run errors", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/pipelines/{id}/labels": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "Get standardized title groups",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Title groups", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/pipelines/{id}/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "Get run summary",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Summary", "schema": {"$ref": "#/definitions/model.RunSummary"}},
                    "404": {"description": "No summary for this run", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/pipelines/{id}/progress": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "Get run progress",
                "parameters": [{"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Stage progress", "schema": {"type": "object", "additionalProperties": true}}}
            }
        },
        "/pipelines/{id}/retry": {
            "post": {
                "produces": ["application/json"],
                "tags": ["pipelines"],
                "summary": "Retry pipeline run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Cluster count for the new run", "name": "clusters", "in": "query"}
                ],
                "responses": {
                    "202": {"description": "Retry accepted", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Run not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/download/{id}/{filename}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["files"],
                "summary": "Download file",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "File name", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "404": {"description": "File not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "model.PipelineConfig": {"type": "object", "additionalProperties": true},
        "model.RunSummary": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "source_count": {"type": "integer"},
                "ingested_records": {"type": "integer"},
                "records_with_salary": {"type": "integer"},
                "salary_coverage_pct": {"type": "number"},
                "master_records": {"type": "integer"},
                "duplicates_removed": {"type": "integer"},
                "clusters": {"type": "integer"},
                "rule_labeled_titles": {"type": "integer"},
                "currency": {"type": "string"},
                "period": {"type": "string"},
                "by_title": {"type": "array", "items": {"type": "object", "additionalProperties": true}}
            }
        },
        "store.RunInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "config": {"$ref": "#/definitions/model.PipelineConfig"},
                "report": {"type": "object", "additionalProperties": true},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Job Market Pipeline API",
	Description:      "Runs the job-market normalization pipeline and serves its reports and output files.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
