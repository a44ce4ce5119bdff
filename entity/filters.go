package entity

// ConversationFilters narrows the conversation list. Zero values mean
// "no filter"; Unassigned wins over AssignedTo when both are set.
type ConversationFilters struct {
	InstanceID string `json:"instance_id,omitempty"`
	Status     string `json:"status,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	Unassigned bool   `json:"unassigned,omitempty"`
	Search     string `json:"search,omitempty"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`
}

// Normalize applies the default page geometry.
func (f *ConversationFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
}

// ConversationPage is one page of the filtered list plus aggregates
// computed over the whole filtered set, not just the page.
type ConversationPage struct {
	Conversations []ConversationWithContact `json:"conversations"`
	TotalCount    int                       `json:"total_count"`
	TotalPages    int                       `json:"total_pages"`
	UnreadCount   int                       `json:"unread_count"`
	WaitingCount  int                       `json:"waiting_count"`
}
