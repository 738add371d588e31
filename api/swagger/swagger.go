// Package swagger holds the OpenAPI document served under /docs.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {"title": "{{.Title}}", "description": "{{escape .Description}}", "version": "{{.Version}}"},
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [
        {"name": "Attendance"},
        {"name": "Exam Results"},
        {"name": "Classes"},
        {"name": "Teachers"},
        {"name": "Students"},
        {"name": "Courses"},
        {"name": "Periods"},
        {"name": "Academic Sessions"},
        {"name": "Reports"},
        {"name": "Dashboard"}
    ],
    "paths": {
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List marks of a class session",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string", "description": "required"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "periodId", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "description": "YYYY-MM-DD"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance for a roster",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/students/{id}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance history of a student",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-results": {
            "get": {
                "tags": ["Exam Results"],
                "summary": "List exam results",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "examType", "in": "query", "type": "string"},
                    {"name": "examDate", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Exam Results"],
                "summary": "Record an exam result",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExamResultRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-results/mine": {
            "get": {
                "tags": ["Exam Results"],
                "summary": "Exam results of the calling student",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-results/{id}": {
            "get": {
                "tags": ["Exam Results"],
                "summary": "Get exam result",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Exam Results"],
                "summary": "Replace exam result",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExamResultRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Exam Results"],
                "summary": "Delete exam result",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes": {
            "get": {
                "tags": ["Classes"],
                "summary": "List classs",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Classes"],
                "summary": "Create class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}": {
            "get": {
                "tags": ["Classes"],
                "summary": "Get class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Classes"],
                "summary": "Update class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ClassRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Classes"],
                "summary": "Delete class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/students": {
            "get": {
                "tags": ["Classes"],
                "summary": "Students enrolled in a class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/teachers": {
            "put": {
                "tags": ["Classes"],
                "summary": "Replace the teachers of a class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/AssignTeachersRequest"}
                    }
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/courses": {
            "put": {
                "tags": ["Classes"],
                "summary": "Replace the courses of a class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignCoursesRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/unassign": {
            "post": {
                "tags": ["Classes"],
                "summary": "Detach students and teachers from a class",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get teacher",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Update teacher",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Delete teacher",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/classes": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Classes taught by a teacher",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create course",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get course",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update course",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete course",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/periods": {
            "get": {
                "tags": ["Periods"],
                "summary": "List periods",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "courseId", "in": "query", "type": "string"},
                    {
                        "name": "day",
                        "in": "query",
                        "type": "string",
                        "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"]
                    },
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Periods"],
                "summary": "Create period",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PeriodRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/periods/{id}": {
            "get": {
                "tags": ["Periods"],
                "summary": "Get period",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Periods"],
                "summary": "Update period",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PeriodRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Periods"],
                "summary": "Delete period",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Academic Sessions"],
                "summary": "List academic sessions",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Academic Sessions"],
                "summary": "Create academic session",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/AcademicSessionRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Academic Sessions"],
                "summary": "Get academic session",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Academic Sessions"],
                "summary": "Update academic session",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/AcademicSessionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Academic Sessions"],
                "summary": "Delete academic session",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/current": {
            "get": {
                "tags": ["Academic Sessions"],
                "summary": "Current academic session",
                "security": [
                    {"BearerAuth": []}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Exam results of a class with averages",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "examType", "in": "query", "type": "string"},
                    {"name": "examDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download class exam results",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]},
                    {"name": "examType", "in": "query", "type": "string"},
                    {"name": "examDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                },
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"]
            }
        },
        "/reports/students/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Exam results of a student with averages",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "examType", "in": "query", "type": "string"},
                    {"name": "examDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/admin": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Institution wide counters",
                "security": [
                    {"BearerAuth": []}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/teacher": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Counters for the calling teacher",
                "security": [
                    {"BearerAuth": []}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/student": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Attendance and results summary of a student",
                "security": [
                    {"BearerAuth": []}
                ],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string", "description": "defaults to the caller"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
        },
        "Pagination": {
            "type": "object",
            "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_count": {"type": "integer"}}
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "AttendanceEntry": {
            "type": "object",
            "properties": {"studentId": {"type": "string"}, "present": {"type": "boolean"}, "remarks": {"type": "string"}},
            "required": ["studentId"]
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {
                "classId": {"type": "string"},
                "courseId": {"type": "string"},
                "periodId": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "students": {"type": "array", "items": {"$ref": "#/definitions/AttendanceEntry"}}
            },
            "required": ["classId", "courseId", "periodId", "date", "students"]
        },
        "ExamResultRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "classId": {"type": "string"},
                "courseId": {"type": "string"},
                "examType": {"type": "string"},
                "examDate": {"type": "string", "format": "date"},
                "score": {"type": "number"},
                "remarks": {"type": "string"}
            },
            "required": ["studentId", "classId", "courseId", "examType", "examDate", "score"]
        },
        "ClassRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "teacher_ids": {"type": "array", "items": {"type": "string"}}},
            "required": ["name"]
        },
        "AssignTeachersRequest": {
            "type": "object",
            "properties": {"teacher_ids": {"type": "array", "items": {"type": "string"}}}
        },
        "AssignCoursesRequest": {
            "type": "object",
            "properties": {"course_ids": {"type": "array", "items": {"type": "string"}}}
        },
        "TeacherRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "specialization": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["first_name", "last_name", "email"]
        },
        "StudentRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "gender": {"type": "string", "enum": ["MALE", "FEMALE", "OTHER"]},
                "date_of_birth": {"type": "string", "format": "date"},
                "admission_date": {"type": "string", "format": "date"},
                "address": {"type": "string"},
                "phone": {"type": "string"},
                "class_id": {"type": "string"},
                "session_id": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["first_name", "last_name"]
        },
        "CourseRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "teacher_id": {"type": "string"}
            },
            "required": ["code", "name"]
        },
        "PeriodRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "course_id": {"type": "string"},
                "day_of_week": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "period_number": {"type": "integer"}
            },
            "required": ["class_id", "course_id", "day_of_week", "start_time", "end_time", "period_number"]
        },
        "AcademicSessionRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "is_current": {"type": "boolean"}
            },
            "required": ["name", "start_date", "end_date"]
        }
    }
}`

// SwaggerInfo carries the values substituted into the document. BasePath is
// overwritten at startup with the configured API prefix.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Academic Records API",
	Description:      "Attendance, exam results and class rosters with role scoped access.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
