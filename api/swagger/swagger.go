package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Canvas Dashboard API",
        "description": "Aggregated student dashboard and grade prediction over Canvas LMS",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Canvas token exchange"},
        {"name": "Dashboard", "description": "Aggregated dashboard and grade forecast"},
        {"name": "Courses", "description": "Single-course views"},
        {"name": "Reports", "description": "Downloadable semester reports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/auth/session": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Create a dashboard session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Canvas token rejected"}
                }
            }
        },
        "/api/v1/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Aggregated student dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/dashboard/prediction": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Final grade forecast",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/v1/courses/{id}/card": {
            "get": {
                "tags": ["Courses"],
                "summary": "Consolidated course card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found"}
                }
            }
        },
        "/api/v1/reports/semester": {
            "get": {
                "tags": ["Reports"],
                "summary": "Semester grade report download",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "400": {"description": "Unsupported format"}
                }
            }
        },
        "/api/v1/reports/download": {
            "get": {
                "tags": ["Reports"],
                "summary": "Re-download an archived report",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "404": {"description": "Report no longer available"}
                }
            }
        }
    },
    "definitions": {
        "SessionRequest": {
            "type": "object",
            "properties": {
                "canvasToken": {"type": "string"}
            },
            "required": ["canvasToken"]
        },
        "SessionResponse": {
            "type": "object",
            "properties": {
                "accessToken": {"type": "string"},
                "expiresAt": {"type": "string"},
                "userId": {"type": "integer"},
                "userName": {"type": "string"}
            }
        },
        "CourseCard": {
            "type": "object",
            "properties": {
                "course": {"type": "object"},
                "enrollment": {"type": "object"},
                "recentGrades": {"type": "array", "items": {"type": "object"}},
                "categoryBreakdown": {"type": "array", "items": {"type": "object"}},
                "upcomingAssignments": {"type": "array", "items": {"type": "object"}},
                "trend": {"type": "string", "enum": ["up", "down", "stable"]},
                "remainingPercent": {"type": "number"},
                "completedAssignments": {"type": "integer"},
                "categoryContributions": {"type": "object", "additionalProperties": {"type": "number"}},
                "pointsSummary": {"type": "object"},
                "gradedPointsSummary": {"type": "object"}
            }
        },
        "PredictionData": {
            "type": "object",
            "properties": {
                "predictedScore": {"type": "number"},
                "predictedLetterGrade": {"type": "string"},
                "gradeProgression": {"type": "array", "items": {"type": "object"}},
                "available": {"type": "boolean"}
            }
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
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
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
