package dto

// ListParams are the paging query parameters of list endpoints.
type ListParams struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken string `form:"nextToken"`
}

// ReceiptJobsParams filter the receipt outbox listing.
type ReceiptJobsParams struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING DONE FAILED"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
}
