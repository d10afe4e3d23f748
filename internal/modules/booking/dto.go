package booking

type CreateBookingRequest struct {
	TeacherID    int64   `json:"teacher_id" binding:"required"`
	SlotIDs      []int64 `json:"slot_ids" binding:"required,min=1"`
	SubjectID    *int64  `json:"subject_id"`
	StudentName  string  `json:"student_name" binding:"required"`
	StudentPhone string  `json:"student_phone"`
	StudentEmail string  `json:"student_email"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason"`
}
