package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Desk Sandbox API",
        "description": "Development backend implementing the school administration wire contract",
        "version": "0.1.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Student registration and roster"},
        {"name": "Fees", "description": "Fee ledger and payments"},
        {"name": "Auth", "description": "Sandbox login"}
    ],
    "paths": {
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentListEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Student"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/StudentEnvelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/FailureEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/FailureEnvelope"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Student"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/FailureEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/StatusEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/FailureEnvelope"}}
                }
            }
        },
        "/students/{id}/fees": {
            "get": {
                "tags": ["Fees"],
                "summary": "Get a student's fees",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FeesEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/FailureEnvelope"}}
                }
            },
            "post": {
                "tags": ["Fees"],
                "summary": "Open a fee against a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/fee-types": {
            "get": {
                "tags": ["Fees"],
                "summary": "List fee types",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Fees"],
                "summary": "Add a fee type to the catalog",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/FailureEnvelope"}}
                }
            }
        },
        "/fees/{id}/payments": {
            "post": {
                "tags": ["Fees"],
                "summary": "Record a payment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "responses": {
                    "200": {"description": "Session cookie set"},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/FailureEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Student": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "studentName": {"type": "string"},
                "parentsName": {"type": "string"},
                "rollNumber": {"type": "string"},
                "class": {"type": "string"},
                "section": {"type": "string"},
                "schoolJoinedDate": {"type": "string"},
                "dateOfBirth": {"type": "string"},
                "phoneNumber": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "StudentEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"$ref": "#/definitions/Student"},
                "message": {"type": "string"}
            }
        },
        "StudentListEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/Student"}},
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "FeesEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "fees": {"type": "array", "items": {"type": "object"}}
            }
        },
        "StatusEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "FailureEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"}
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
