// Package http provides HTTP handlers and middleware for the calendar sync
// API.
//
// The router exposes the following endpoints:
//   - GET /availability: computes bookable slots for one staff member
//     (`staff_id` query parameter) or for the whole roster when `staff_id`
//     is omitted. `date` (YYYY-MM-DD, salon-local) and `duration` (minutes)
//     are required. Responses exchange the `slotDTO` payload defined in
//     availability_handler.go.
//   - POST /sync/appointments: propagates one appointment change to the
//     external calendars. Body: {"appointment_id","staff_id","operation"}
//     with operation one of create, update or delete. The response reports
//     both the staff calendar write and the store mirror.
//   - POST /sync/shifts: mirrors staff shifts onto the shared store
//     calendar. Body fields are optional: "staff_id" targets one staff
//     member, "from"/"to" (RFC 3339) override the default 30 day window.
//   - GET /healthz: liveness probe, returns {"status":"ok"}.
//
// Every endpoint resolves its tenant from the X-Tenant-ID header, falling
// back to the configured default tenant. Request/response DTOs live
// alongside their respective handlers so tests and documentation share the
// same ground truth.
package http
