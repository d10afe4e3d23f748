package availability

type SlotWindow struct {
	Start string `json:"start" binding:"required"` // "15:04"
	End   string `json:"end" binding:"required"`
}

type PublishSlotsRequest struct {
	TeacherID int64        `json:"teacher_id"`
	SubjectID *int64       `json:"subject_id"`
	Date      string       `json:"date" binding:"required"` // "2006-01-02"
	Windows   []SlotWindow `json:"windows" binding:"required,min=1"`
}
