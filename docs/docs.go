// Package docs serves the OpenAPI document of the API. The template mirrors the
// handler annotations; rebuild it with swag after changing them.
package docs

//go:generate swag init -g cmd/server/main.go -d ../ -o . --parseInternal

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "API Support", "email": "support@ngelmak.dev"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/authenticate": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["auth"],
                "summary": "Current login",
                "responses": {"200": {"description": "OK", "schema": {"type": "string"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "password": {"type": "string"},
                                "rememberMe": {"type": "boolean"},
                                "username": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "properties": {"id_token": {"type": "string"}}}
                    },
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a user",
                "parameters": [
                    {
                        "description": "Registration",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.RegisterInput"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/activate": {
            "get": {
                "tags": ["auth"],
                "summary": "Activate a user",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Activation key",
                        "name": "key",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        },
        "/account/reset-password/init": {
            "post": {
                "consumes": ["text/plain"],
                "tags": ["auth"],
                "summary": "Request a password reset",
                "parameters": [
                    {
                        "description": "Email",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"type": "string"}
                    }
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/account/reset-password/finish": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Finish a password reset",
                "parameters": [
                    {
                        "description": "Key and new password",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {"key": {"type": "string"}, "newPassword": {"type": "string"}}
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Revoke the current token",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/feature-flags": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["feature-flags"],
                "summary": "Feature flags with their evaluation for the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.FeatureFlagsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/ws/ticket": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["realtime"],
                "summary": "Issue a websocket ticket",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "properties": {"expires_in": {"type": "integer"}, "ticket": {"type": "string"}}
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["realtime"],
                "summary": "Open the notification socket",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Websocket ticket",
                        "name": "ticket",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/ngelmak-accounts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "List accounts",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Account"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Create a account",
                "parameters": [
                    {
                        "description": "Account",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.CreateAccountInput"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Account"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Replace a account",
                "parameters": [
                    {
                        "description": "Account",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Account"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Account"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/ngelmak-accounts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Get a account",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Account ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Account"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Merge fields into a account",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Account ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.AccountPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Account"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["accounts"],
                "summary": "Delete a account",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Account ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/ngelmak-accounts/current-user": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Account of the current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Account"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/configs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["configs"],
                "summary": "List configs",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Config"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["configs"],
                "summary": "Create a config",
                "parameters": [
                    {
                        "description": "Config",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Config"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Config"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/configs/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["configs"],
                "summary": "Get a config",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Config ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Config"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["configs"],
                "summary": "Merge fields into a config",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Config ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.ConfigPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Config"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["configs"],
                "summary": "Delete a config",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Config ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["configs"],
                "summary": "Replace a config",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Config ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Config",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Config"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Config"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/posts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "List posts",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Publish a post",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Post JSON",
                        "name": "post",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Attachments JSON array",
                        "name": "attachments",
                        "in": "formData"
                    },
                    {"type": "file", "description": "Attachment files", "name": "files", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Post"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Update a post and its attachments",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Post JSON",
                        "name": "post",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Attachments JSON array",
                        "name": "attachments",
                        "in": "formData"
                    },
                    {"type": "file", "description": "Attachment files", "name": "files", "in": "formData"},
                    {
                        "type": "string",
                        "description": "IDs of attachments to remove, JSON array",
                        "name": "deletedAttachments",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/posts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Get a post",
                "parameters": [{"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Merge fields into a post",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Post ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.PostPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["posts"],
                "summary": "Delete a post",
                "parameters": [{"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/attachments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["attachments"],
                "summary": "List attachments",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Attachment"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attachments"],
                "summary": "Create a attachment",
                "parameters": [
                    {
                        "description": "Attachment",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Attachment"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Attachment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/attachments/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["attachments"],
                "summary": "Get a attachment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Attachment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Attachment"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["attachments"],
                "summary": "Merge fields into a attachment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Attachment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.AttachmentPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Attachment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["attachments"],
                "summary": "Delete a attachment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Attachment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["attachments"],
                "summary": "Replace a attachment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Attachment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Attachment",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Attachment"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Attachment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/attachments/{id}/resource": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/octet-stream"],
                "tags": ["attachments"],
                "summary": "Download the stored file of an attachment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Attachment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/attachments/{id}/preview": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["image/webp"],
                "tags": ["attachments"],
                "summary": "Download the preview of an image attachment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Attachment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/comments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "List comments",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Comment"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Create a comment",
                "parameters": [
                    {
                        "description": "Comment",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Comment"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Comment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/comments/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Get a comment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Comment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Comment"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Merge fields into a comment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Comment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.CommentPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Comment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["comments"],
                "summary": "Delete a comment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Comment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["comments"],
                "summary": "Replace a comment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Comment ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Comment",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Comment"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Comment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/tickets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "List tickets",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Ticket"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Create a ticket",
                "parameters": [
                    {
                        "description": "Ticket",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Ticket"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/tickets/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Get a ticket",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Ticket ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Ticket"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Merge fields into a ticket",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Ticket ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.TicketPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tickets"],
                "summary": "Delete a ticket",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Ticket ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "Replace a ticket",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Ticket ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Ticket",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Ticket"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/reviews": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "List reviews",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Review"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Create a review",
                "parameters": [
                    {
                        "description": "Review",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Review"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Review"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/reviews/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Get a review",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Review ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Review"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Merge fields into a review",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Review ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.ReviewPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Review"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["reviews"],
                "summary": "Delete a review",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Review ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Replace a review",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Review ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Review",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Review"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Review"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/memberships": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["memberships"],
                "summary": "List memberships",
                "parameters": [
                    {"type": "integer", "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size", "name": "size", "in": "query"},
                    {"type": "string", "description": "property,asc|desc", "name": "sort", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Membership"}}
                    }
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["memberships"],
                "summary": "Create a membership",
                "parameters": [
                    {
                        "description": "Membership",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Membership"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Membership"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/memberships/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["memberships"],
                "summary": "Get a membership",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Membership ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Membership"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/merge-patch+json"],
                "produces": ["application/json"],
                "tags": ["memberships"],
                "summary": "Merge fields into a membership",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Membership ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Fields to change",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.MembershipPatch"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Membership"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["memberships"],
                "summary": "Delete a membership",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Membership ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {"204": {"description": "No Content"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["memberships"],
                "summary": "Replace a membership",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Membership ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Membership",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.Membership"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Membership"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Account": {
            "type": "object",
            "properties": {
                "backgroundPicture": {"type": "string"},
                "configuration": {"$ref": "#/definitions/models.Config"},
                "configurationId": {"type": "integer"},
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "foregroundPicture": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "userId": {"type": "integer"},
                "visibility": {"type": "string"}
            }
        },
        "models.Attachment": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "content": {"type": "string"},
                "deletedAt": {"type": "string"},
                "duration": {"type": "integer"},
                "filename": {"type": "string"},
                "id": {"type": "integer"},
                "position": {"type": "integer"},
                "postId": {"type": "integer"},
                "size": {"type": "integer"},
                "type": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "models.Comment": {
            "type": "object",
            "properties": {
                "accountId": {"type": "integer"},
                "at": {"type": "string"},
                "content": {"type": "string"},
                "id": {"type": "integer"},
                "lastUpdate": {"type": "string"},
                "opinion": {"type": "string"},
                "postId": {"type": "integer"},
                "replies": {"type": "array", "items": {"$ref": "#/definitions/models.Comment"}},
                "replyToId": {"type": "integer"}
            }
        },
        "models.Config": {
            "type": "object",
            "properties": {
                "defaultAccessibility": {"type": "string"},
                "defaultVisibility": {"type": "string"},
                "id": {"type": "integer"},
                "lastUpdate": {"type": "string"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "entity": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "models.Membership": {
            "type": "object",
            "properties": {
                "accountId": {"type": "integer"},
                "activateNotification": {"type": "boolean"},
                "at": {"type": "string"},
                "id": {"type": "integer"},
                "subscriberId": {"type": "integer"}
            }
        },
        "models.Post": {
            "type": "object",
            "properties": {
                "accountId": {"type": "integer"},
                "at": {"type": "string"},
                "attachments": {"type": "array", "items": {"$ref": "#/definitions/models.Attachment"}},
                "content": {"type": "string"},
                "id": {"type": "integer"},
                "keywords": {"type": "string"},
                "lastUpdate": {"type": "string"},
                "status": {"type": "string"},
                "subject": {"type": "string"},
                "subtitle": {"type": "string"},
                "title": {"type": "string"},
                "visibility": {"type": "string"}
            }
        },
        "models.Review": {
            "type": "object",
            "properties": {
                "accountId": {"type": "integer"},
                "at": {"type": "string"},
                "id": {"type": "integer"},
                "replies": {"type": "array", "items": {"$ref": "#/definitions/models.Review"}},
                "replyToId": {"type": "integer"},
                "status": {"type": "string"},
                "ticketId": {"type": "integer"},
                "timeout": {"type": "integer"}
            }
        },
        "models.Ticket": {
            "type": "object",
            "properties": {
                "accountRelatedId": {"type": "integer"},
                "at": {"type": "string"},
                "closed": {"type": "boolean"},
                "commentRelatedId": {"type": "integer"},
                "content": {"type": "string"},
                "id": {"type": "integer"},
                "issuedById": {"type": "integer"},
                "object": {"type": "string"},
                "postRelatedId": {"type": "integer"},
                "reviews": {"type": "array", "items": {"$ref": "#/definitions/models.Review"}},
                "type": {"type": "string"}
            }
        },
        "server.FeatureFlagsResponse": {
            "type": "object",
            "properties": {
                "evaluated": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "raw": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "service.AccountPatch": {
            "type": "object",
            "properties": {
                "backgroundPicture": {"type": "string"},
                "createdAt": {"type": "string"},
                "description": {"type": "string"},
                "foregroundPicture": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "visibility": {"type": "string"}
            }
        },
        "service.AttachmentPatch": {
            "type": "object",
            "properties": {"content": {"type": "string"}, "id": {"type": "integer"}, "type": {"type": "string"}}
        },
        "service.CommentPatch": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "content": {"type": "string"},
                "id": {"type": "integer"},
                "lastUpdate": {"type": "string"},
                "opinion": {"type": "string"}
            }
        },
        "service.ConfigPatch": {
            "type": "object",
            "properties": {
                "defaultAccessibility": {"type": "string"},
                "defaultVisibility": {"type": "string"},
                "id": {"type": "integer"},
                "lastUpdate": {"type": "string"}
            }
        },
        "service.CreateAccountInput": {
            "type": "object",
            "properties": {"description": {"type": "string"}, "name": {"type": "string"}, "visibility": {"type": "string"}}
        },
        "service.MembershipPatch": {
            "type": "object",
            "properties": {"activateNotification": {"type": "boolean"}, "at": {"type": "string"}, "id": {"type": "integer"}}
        },
        "service.PostPatch": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "content": {"type": "string"},
                "id": {"type": "integer"},
                "keywords": {"type": "string"},
                "lastUpdate": {"type": "string"},
                "status": {"type": "string"},
                "subject": {"type": "string"},
                "subtitle": {"type": "string"},
                "title": {"type": "string"},
                "visibility": {"type": "string"}
            }
        },
        "service.RegisterInput": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "langKey": {"type": "string"},
                "lastName": {"type": "string"},
                "login": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "service.ReviewPatch": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "id": {"type": "integer"},
                "status": {"type": "string"},
                "timeout": {"type": "integer"}
            }
        },
        "service.TicketPatch": {
            "type": "object",
            "properties": {
                "at": {"type": "string"},
                "closed": {"type": "boolean"},
                "content": {"type": "string"},
                "id": {"type": "integer"},
                "object": {"type": "string"},
                "type": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Ngelmak API",
	Description:      "Publishing platform API with accounts, posts, attachments, comments, moderation tickets and subscriptions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
