// Package server provides the webhook HTTP surface and the outbound chat
// gateway client.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Webhook Flow
//
// The chat gateway POSTs updates to /webhook as JSON. [WebhookHandler]
// decodes each update into a dispatcher event and hands it off on its own
// goroutine, so the gateway always gets an immediate 200 and a slow
// download never blocks the next update.
//
// [SecretMiddleware] guards the endpoint with a shared secret in the
// X-Gateway-Secret header.
//
// # Outbound Delivery
//
// [GatewayTransport] implements the dispatcher's transport boundary by
// posting text, result lists, and multipart audio uploads back to the
// gateway. Audio files are removed after the send attempt either way.
package server
