package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemarkhq/ripple/backend/internal/models"
)

func TestCleanupCorrectsSurvivorCounters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	doomed := env.users.add("Doomed", models.VisibilityPublic)
	fan := env.users.add("Fan", models.VisibilityPublic)
	idol := env.users.add("Idol", models.VisibilityPublic)

	// fan follows doomed, doomed follows idol
	_, err := env.relationshipSvc.Follow(ctx, fan.ID, doomed.ID)
	require.NoError(t, err)
	_, err = env.relationshipSvc.Follow(ctx, doomed.ID, idol.ID)
	require.NoError(t, err)

	require.NoError(t, env.cleanupSvc.Run(ctx, doomed.ID))

	fanCounts := counts(t, env, fan)
	assert.Equal(t, int64(0), fanCounts.Following)
	idolCounts := counts(t, env, idol)
	assert.Equal(t, int64(0), idolCounts.Followers)

	assert.Empty(t, env.rels.status(fan.ID, doomed.ID))
	assert.Empty(t, env.rels.status(doomed.ID, idol.ID))
}

func TestCleanupIgnoresPendingEdges(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	doomed := env.users.add("Doomed", models.VisibilityPublic)
	gated := env.users.add("Gated", models.VisibilityPrivate)

	_, err := env.relationshipSvc.Follow(ctx, doomed.ID, gated.ID)
	require.NoError(t, err)
	require.Equal(t, models.RelationRequested, env.rels.status(doomed.ID, gated.ID))

	require.NoError(t, env.cleanupSvc.Run(ctx, doomed.ID))

	// the pending edge is removed but never counted, so nothing to correct
	assert.Empty(t, env.rels.status(doomed.ID, gated.ID))
	gatedCounts := counts(t, env, gated)
	assert.Equal(t, int64(0), gatedCounts.Followers)
	assert.Equal(t, int64(0), gatedCounts.Following)
}

func TestCleanupWithdrawsReactionTallies(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	doomed := env.users.add("Doomed", models.VisibilityPublic)
	author := env.users.add("Author", models.VisibilityPublic)
	post := env.posts.add(author.ID, "hello")
	comment := env.comments.add(post.ID, author.ID, nil)

	require.NoError(t, env.reactionSvc.React(ctx, doomed.ID, models.TargetPost, post.ID, models.ReactionLike))
	require.NoError(t, env.reactionSvc.React(ctx, doomed.ID, models.TargetComment, comment.ID, models.ReactionDislike))

	require.NoError(t, env.cleanupSvc.Run(ctx, doomed.ID))

	p, err := env.posts.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCounts{}, p.Counts.Reactions)

	c, err := env.comments.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionCounts{}, c.Counts.Reactions)
}

func TestCleanupPurgesNotificationsAndSaves(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	doomed := env.users.add("Doomed", models.VisibilityPublic)
	peer := env.users.add("Peer", models.VisibilityPublic)
	post := env.posts.add(peer.ID, "hello")

	// notifications in both directions
	_, err := env.relationshipSvc.Follow(ctx, doomed.ID, peer.ID)
	require.NoError(t, err)
	_, err = env.relationshipSvc.Follow(ctx, peer.ID, doomed.ID)
	require.NoError(t, err)
	require.NoError(t, env.saves.SavePost(&models.SavedPost{UserID: doomed.ID.Hex(), PostID: post.ID.Hex()}))

	require.NoError(t, env.cleanupSvc.Run(ctx, doomed.ID))

	assert.Empty(t, env.notifs.all(peer.ID.Hex()))
	assert.Empty(t, env.notifs.all(doomed.ID.Hex()))
	saved, err := env.saves.ListByUser(doomed.ID.Hex(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestCleanupRerunIsNoOp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	doomed := env.users.add("Doomed", models.VisibilityPublic)
	fan := env.users.add("Fan", models.VisibilityPublic)

	_, err := env.relationshipSvc.Follow(ctx, fan.ID, doomed.ID)
	require.NoError(t, err)

	require.NoError(t, env.cleanupSvc.Run(ctx, doomed.ID))
	require.NoError(t, env.cleanupSvc.Run(ctx, doomed.ID))

	fanCounts := counts(t, env, fan)
	assert.Equal(t, int64(0), fanCounts.Following)
}
