package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Score API",
        "description": "Score calculation and batch scoring for exam attempts and extra fields",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scores", "description": "Per-student and batch score calculation"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/scores/calculate": {
            "post": {
                "tags": ["Scores"],
                "summary": "Calculate one student's score from a raw input payload",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculationInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/batch": {
            "post": {
                "tags": ["Scores"],
                "summary": "Calculate scores for a batch of student codes",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Bulk read failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/cache": {
            "get": {
                "tags": ["Scores"],
                "summary": "Report the number of cached results",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Scores"],
                "summary": "Invalidate every cached result",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/scores/cache/{code}": {
            "get": {
                "tags": ["Scores"],
                "summary": "Get the cached result for a student code",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scores/metrics": {
            "get": {
                "tags": ["Observability"],
                "summary": "Scoring counters snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ExamAttempt": {
            "type": "object",
            "properties": {
                "exam_id": {"type": "string"},
                "exam_title": {"type": "string"},
                "score_percentage": {"type": "number"},
                "final_score_percentage": {"type": "number"},
                "include_in_pass": {"type": "boolean"},
                "pass_threshold": {"type": "number"}
            },
            "required": ["exam_id"]
        },
        "ExtraField": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "label": {"type": "string"},
                "type": {"type": "string", "enum": ["number", "text", "boolean"]},
                "include_in_pass": {"type": "boolean"},
                "pass_weight": {"type": "number"},
                "max_points": {"type": "number"},
                "bool_true_points": {"type": "number"},
                "bool_false_points": {"type": "number"},
                "text_score_map": {"type": "object", "additionalProperties": {"type": "number"}}
            },
            "required": ["key", "type"]
        },
        "CalculationSettings": {
            "type": "object",
            "properties": {
                "pass_calc_mode": {"type": "string", "enum": ["best", "avg"]},
                "overall_pass_threshold": {"type": "number"},
                "exam_weight": {"type": "number"},
                "exam_score_source": {"type": "string", "enum": ["final", "raw"]},
                "fail_on_any_exam": {"type": "boolean"}
            }
        },
        "CalculationInput": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "student_code": {"type": "string"},
                "student_name": {"type": "string"},
                "exam_attempts": {"type": "array", "items": {"$ref": "#/definitions/ExamAttempt"}},
                "extra_scores": {"type": "object"},
                "extra_fields": {"type": "array", "items": {"$ref": "#/definitions/ExtraField"}},
                "settings": {"$ref": "#/definitions/CalculationSettings"}
            },
            "required": ["student_id", "student_code", "student_name"]
        },
        "BatchScoreRequest": {
            "type": "object",
            "properties": {
                "student_codes": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["student_codes"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
