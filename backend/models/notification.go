package models

import "gorm.io/gorm"

// Notification categories
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification targets
const (
	TargetIndividual = "individual"
	TargetGlobal     = "global"
)

type Notification struct {
	gorm.Model
	Title   string
	Message string
	Type    string `gorm:"default:info"` // info, success, warning, error
	Target  string `gorm:"default:individual"`
	UserID  *uint  `gorm:"index"` // nil when global
	IsRead  bool   `gorm:"default:false"`
	Link    string
}
