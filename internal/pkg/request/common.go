package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ByRequestIDRequest binds the :requestId path parameter of swap endpoints.
type ByRequestIDRequest struct {
	RequestID string `uri:"requestId" binding:"required,uuid"`
}
