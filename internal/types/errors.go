package types

// API error codes. The numeric suffix mirrors the HTTP status.
const (
	CodeLayoutBadRequest    = "LAYOUT_400"
	CodeLayoutNotFound      = "LAYOUT_404"
	CodeLayoutUnprocessable = "LAYOUT_422"
	CodeLayoutInternal      = "LAYOUT_500"
	CodeDatatypeNotFound    = "DATATYPE_404"
	CodeInterfaceNotFound   = "INTERFACE_404"
	CodeConvertBadRequest   = "CONVERT_400"
	CodeDeployBadRequest    = "DEPLOY_400"
	CodeDeployNotFound      = "DEPLOY_404"
	CodeDeployUnavailable   = "DEPLOY_503"
	CodeDeployFailed        = "DEPLOY_502"
	CodeDeployVerify        = "DEPLOY_409"
	CodeAuthUnauthorized    = "AUTH_401"
	CodeAuthForbidden       = "AUTH_403"
	CodeSystemInternal      = "SYSTEM_500"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
