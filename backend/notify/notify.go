package notify

import (
	"mcqbank/backend/models"

	"gorm.io/gorm"
)

// Notifier persists notifications. Delivery is whatever polls the
// notifications table; nothing here is real-time.
type Notifier struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Notifier {
	return &Notifier{DB: db}
}

// Push stores an individual notification for one user.
func (n *Notifier) Push(userID uint, title, message, ntype, link string) error {
	return n.DB.Create(&models.Notification{
		Title:   title,
		Message: message,
		Type:    ntype,
		Target:  models.TargetIndividual,
		UserID:  &userID,
		Link:    link,
	}).Error
}

// Broadcast stores a single global notification visible to everyone.
func (n *Notifier) Broadcast(title, message, ntype, link string) error {
	return n.DB.Create(&models.Notification{
		Title:   title,
		Message: message,
		Type:    ntype,
		Target:  models.TargetGlobal,
		Link:    link,
	}).Error
}

// NotifyAdmins fans one notification out to every admin. Each write stands
// alone; one failing row does not stop the rest.
func (n *Notifier) NotifyAdmins(title, message, ntype, link string) error {
	var admins []models.User
	if err := n.DB.Where("role = ?", "admin").Find(&admins).Error; err != nil {
		return err
	}
	var firstErr error
	for _, admin := range admins {
		if err := n.Push(admin.ID, title, message, ntype, link); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
