package models

type Answer struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	QuestionID uint    `json:"question_id" gorm:"not null;index"`
	Text       string  `json:"text" gorm:"size:500;not null" validate:"required,min=1,max=500"`
	ImageURL   *string `json:"image_url" gorm:"size:500" validate:"omitempty,max=500"`
	IsCorrect  bool    `json:"is_correct" gorm:"not null;default:false"`
}

func (Answer) TableName() string {
	return "answers"
}
