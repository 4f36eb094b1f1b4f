package models

import "time"

// Notification types. The *Like types are aggregatable: repeated occurrences
// from the same sender within the dedup window collapse into one unseen
// record. The rest always insert.
const (
	NotifPostLike       = "postLike"
	NotifCommentLike    = "commentLike"
	NotifNewFollower    = "newFollower"
	NotifFollowAccepted = "followAccepted"
	NotifNewComment     = "newComment"
	NotifNewReply       = "newReply"
)

// Notification represents a user notification (PostgreSQL). Sender, receiver
// and target ids are document ids from the Mongo side, stored as hex strings.
type Notification struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	SenderID   string     `json:"sender_id" gorm:"size:24;index"`
	ReceiverID string     `json:"receiver_id" gorm:"size:24;index:idx_receiver_created"`
	Type       string     `json:"type" gorm:"size:30;index"`
	TargetID   string     `json:"target_id" gorm:"size:24"`
	TargetType string     `json:"target_type" gorm:"size:20"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index:idx_receiver_created"`
	SeenAt     *time.Time `json:"seen_at,omitempty" gorm:"index"`
}

// Aggregatable reports whether notifications of this type are subject to the
// dedup window.
func Aggregatable(notifType string) bool {
	return notifType == NotifPostLike || notifType == NotifCommentLike
}
