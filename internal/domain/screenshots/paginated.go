package screenshots

// Page is one page of an owner's active screenshots plus the total count.
type Page struct {
	Data  []*Screenshot
	Page  int
	Limit int
	Total int64
}
