// Package docs registers the OpenAPI document of the relay API with swag
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/webhook": {
            "post": {
                "tags": ["Webhooks"],
                "summary": "Receive order webhook",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "X-Shopify-Shop-Domain", "in": "header"},
                    {"type": "string", "name": "X-Shopify-Hmac-Sha256", "in": "header"},
                    {"type": "string", "name": "shop", "in": "query"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.OrderEvent"}}
                ],
                "responses": {
                    "200": {"description": "Processing outcome", "schema": {"$ref": "#/definitions/dto.OrderWebhookResult"}},
                    "401": {"description": "Invalid webhook signature", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/webhooks/orders": {
            "post": {
                "tags": ["Webhooks"],
                "summary": "Receive order webhook",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.OrderEvent"}}
                ],
                "responses": {
                    "200": {"description": "Processing outcome", "schema": {"$ref": "#/definitions/dto.OrderWebhookResult"}}
                }
            }
        },
        "/configuracion/estado": {
            "get": {
                "tags": ["Tenants"],
                "summary": "Toggle store activation",
                "parameters": [
                    {"type": "string", "name": "shop", "in": "query", "required": true},
                    {"type": "string", "name": "estado", "in": "query", "required": true, "enum": ["0", "1"]}
                ],
                "responses": {
                    "302": {"description": "Redirect to the store panel"},
                    "400": {"description": "Missing shop or invalid estado"},
                    "404": {"description": "Unknown store"}
                }
            }
        },
        "/configuracion": {
            "post": {
                "tags": ["Tenants"],
                "summary": "Submit store configuration form",
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "parameters": [
                    {"type": "string", "name": "shop", "in": "formData", "required": true},
                    {"type": "string", "name": "instance_id", "in": "formData", "required": true},
                    {"type": "string", "name": "token", "in": "formData", "required": true},
                    {"type": "string", "name": "activa", "in": "formData", "enum": ["0", "1", "true", "false", "on", "off", "yes", "no"]},
                    {"type": "string", "name": "country_prefix", "in": "formData"}
                ],
                "responses": {
                    "302": {"description": "Redirect to the store panel"},
                    "400": {"description": "Invalid form"}
                }
            }
        },
        "/panel": {
            "get": {
                "tags": ["History"],
                "summary": "Store panel",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "shop", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PanelResponse"}},
                    "400": {"description": "Missing shop"},
                    "404": {"description": "Unknown store"}
                }
            }
        },
        "/api/v1/admin/tenants": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tenants"],
                "summary": "List store configurations",
                "parameters": [{"type": "boolean", "name": "active", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/api/v1/admin/tenants/{shop}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tenants"],
                "summary": "Get store configuration",
                "parameters": [{"type": "string", "name": "shop", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tenants"],
                "summary": "Upsert store configuration",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "shop", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpsertTenantConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/tenants/{shop}/messages": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["History"],
                "summary": "List store notifications",
                "parameters": [
                    {"type": "string", "name": "shop", "in": "path", "required": true},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/api/v1/admin/tenants/{shop}/messages/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["History"],
                "summary": "Export store notifications",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [{"type": "string", "name": "shop", "in": "path", "required": true}],
                "responses": {"200": {"description": "Excel workbook", "schema": {"type": "file"}}}
            }
        },
        "/api/v1/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Healthy", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "503": {"description": "Degraded", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorDetail"}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {}
            }
        },
        "dto.OrderEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "source_name": {"type": "string"},
                "email": {"type": "string"},
                "customer": {"type": "object"},
                "shipping_address": {"type": "object"},
                "billing_address": {"type": "object"},
                "line_items": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.OrderWebhookResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["sent", "failed", "duplicate", "error"]},
                "order_id": {"type": "string"},
                "message": {"type": "string"},
                "dispatched": {"type": "boolean"}
            }
        },
        "dto.UpsertTenantConfigRequest": {
            "type": "object",
            "required": ["instance_id", "token"],
            "properties": {
                "instance_id": {"type": "string"},
                "token": {"type": "string"},
                "activa": {"type": "string", "enum": ["0", "1", "true", "false", "on", "off", "yes", "no"]},
                "country_prefix": {"type": "string"}
            }
        },
        "dto.PanelResponse": {
            "type": "object",
            "properties": {
                "shop": {"type": "string"},
                "active": {"type": "boolean"},
                "instance_id": {"type": "string"},
                "messages": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Order Relay API",
	Description:      "Order webhook intake, store configuration and notification history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
