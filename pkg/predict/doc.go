// Package predict talks to the remote price-prediction service.
//
// The service is a black box with two endpoints: POST /predict takes a
// feature vector and answers with a price estimate, GET /health reports
// liveness. Every failure mode (no response, non-2xx status, malformed body)
// is converted into an *Error whose Message is safe to show to users.
// Requests and responses can be checked against the bundled OpenAPI contract.
package predict
