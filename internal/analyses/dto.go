package analyses

type listResponse struct {
	Items  []Record `json:"items"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}
