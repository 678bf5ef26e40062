package like

// State est la réponse commune des endpoints de like
type State struct {
	PostID    string `json:"postId"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"likeCount"`
}
