package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Review API",
        "description": "Classroom video review workflow and reporting",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, logout and password flows"},
        {"name": "Users", "description": "Teacher and admin account management"},
        {"name": "Classes", "description": "Class reference data"},
        {"name": "Sections", "description": "Section reference data"},
        {"name": "Subjects", "description": "Subjects and rubric categories"},
        {"name": "Videos", "description": "Video review lifecycle"},
        {"name": "Reports", "description": "Reporting aggregations and exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/admin/videos": {
            "get": {
                "tags": ["Videos"],
                "summary": "List videos",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Videos"],
                "summary": "Upload a video record",
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/admin/videos/{id}/assign": {
            "post": {
                "tags": ["Videos"],
                "summary": "Assign a reviewer",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid lifecycle state"}
                }
            }
        },
        "/admin/videos/{id}/review": {
            "post": {
                "tags": ["Videos"],
                "summary": "Submit a review",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Not the assigned reviewer"}
                }
            }
        },
        "/admin/videos/{id}/publish": {
            "post": {
                "tags": ["Videos"],
                "summary": "Publish reviewed feedback",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/reports/dashboard": {
            "get": {
                "tags": ["Reports"],
                "summary": "Management dashboard",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "ErrorSource": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPage": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object"},
                "meta": {"$ref": "#/definitions/Pagination"},
                "errorSources": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ErrorSource"}
                }
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
