package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemarkhq/ripple/backend/internal/models"
)

func TestNotifyNeverSelfNotifies(t *testing.T) {
	env := newTestEnv()
	env.notificationSvc.Notify("aaa", "aaa", models.NotifPostLike, "t1", models.TargetPost)
	assert.Empty(t, env.notifs.all("aaa"))
}

func TestNotifyDedupWithinWindow(t *testing.T) {
	env := newTestEnv()

	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post1", models.TargetPost)
	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post1", models.TargetPost)

	got := env.notifs.all("receiver")
	require.Len(t, got, 1)

	// the surviving record keeps its first-occurrence timestamp
	first := got[0].CreatedAt
	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post1", models.TargetPost)
	got = env.notifs.all("receiver")
	require.Len(t, got, 1)
	assert.Equal(t, first, got[0].CreatedAt)
}

func TestNotifyDedupKeyIsExact(t *testing.T) {
	env := newTestEnv()

	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post1", models.TargetPost)
	// different target, different sender, different type: all insert
	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post2", models.TargetPost)
	env.notificationSvc.Notify("other", "receiver", models.NotifPostLike, "post1", models.TargetPost)
	env.notificationSvc.Notify("sender", "receiver", models.NotifCommentLike, "post1", models.TargetComment)

	assert.Len(t, env.notifs.all("receiver"), 4)
}

func TestNotifySeenRecordDoesNotSuppress(t *testing.T) {
	env := newTestEnv()

	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post1", models.TargetPost)
	got := env.notifs.all("receiver")
	require.Len(t, got, 1)
	require.NoError(t, env.notifs.MarkSeen(got[0].ID, "receiver"))

	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post1", models.TargetPost)
	assert.Len(t, env.notifs.all("receiver"), 2)
}

func TestNotifyExpiredRecordDoesNotSuppress(t *testing.T) {
	env := newTestEnv()

	stale := &models.Notification{
		SenderID:   "sender",
		ReceiverID: "receiver",
		Type:       models.NotifPostLike,
		TargetID:   "post1",
		TargetType: models.TargetPost,
		CreatedAt:  time.Now().Add(-likeDedupWindow - time.Hour),
	}
	require.NoError(t, env.notifs.CreateNotification(stale))

	env.notificationSvc.Notify("sender", "receiver", models.NotifPostLike, "post1", models.TargetPost)
	assert.Len(t, env.notifs.all("receiver"), 2)
}

func TestNonAggregatableTypesAlwaysInsert(t *testing.T) {
	env := newTestEnv()

	env.notificationSvc.Notify("sender", "receiver", models.NotifNewComment, "c1", models.TargetComment)
	env.notificationSvc.Notify("sender", "receiver", models.NotifNewComment, "c1", models.TargetComment)

	assert.Len(t, env.notifs.all("receiver"), 2)
}

func TestRetractFollowOnlyInsideWindow(t *testing.T) {
	env := newTestEnv()

	old := &models.Notification{
		SenderID:   "sender",
		ReceiverID: "receiver",
		Type:       models.NotifNewFollower,
		TargetID:   "sender",
		TargetType: "user",
		CreatedAt:  time.Now().Add(-followRetractWindow - time.Minute),
	}
	require.NoError(t, env.notifs.CreateNotification(old))
	env.notificationSvc.Notify("sender2", "receiver", models.NotifNewFollower, "sender2", "user")

	env.notificationSvc.RetractFollow("sender", "receiver")
	env.notificationSvc.RetractFollow("sender2", "receiver")

	got := env.notifs.all("receiver")
	// the aged record survives; the fresh one is retracted
	require.Len(t, got, 1)
	assert.Equal(t, "sender", got[0].SenderID)
}

func TestRetractFollowSparesSeenRecords(t *testing.T) {
	env := newTestEnv()

	env.notificationSvc.Notify("sender", "receiver", models.NotifNewFollower, "sender", "user")
	got := env.notifs.all("receiver")
	require.Len(t, got, 1)
	require.NoError(t, env.notifs.MarkSeen(got[0].ID, "receiver"))

	env.notificationSvc.RetractFollow("sender", "receiver")
	assert.Len(t, env.notifs.all("receiver"), 1)
}
