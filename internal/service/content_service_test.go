package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/lawdir/directory-api/internal/domain"
	"github.com/lawdir/directory-api/internal/service"
	"github.com/lawdir/directory-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentService_Pages(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	about, err := env.content.CreatePage(ctx, &domain.CreatePageRequest{
		Title:       "About Us",
		Body:        "# About\n\nWe list **law firms** across the country.<script>alert(1)</script>",
		IsPublished: true,
		ShowInNav:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "about-us", about.Slug)
	assert.Contains(t, about.BodyHTML, "<strong>law firms</strong>")
	assert.NotContains(t, about.BodyHTML, "<script>")
	assert.Contains(t, about.MetaDescription, "We list law firms across the country.")
	assert.NotContains(t, about.MetaDescription, "alert")

	dup, err := env.content.CreatePage(ctx, &domain.CreatePageRequest{Title: "About us"})
	require.NoError(t, err)
	assert.Equal(t, "about-us-2", dup.Slug)

	// a title change keeps the published URL
	renamed, err := env.content.UpdatePage(ctx, about.ID, &domain.UpdatePageRequest{Title: "Who we are", Body: "Hello", IsPublished: true, ShowInNav: true})
	require.NoError(t, err)
	assert.Equal(t, "about-us", renamed.Slug)

	_, err = env.content.UpdatePage(ctx, about.ID, &domain.UpdatePageRequest{Title: "Who we are", Slug: "about-us-2"})
	assert.ErrorIs(t, err, service.ErrConflict)

	public, err := env.content.GetPublishedPage(context.Background(), "ABOUT-US")
	require.NoError(t, err)
	assert.Equal(t, "Who we are", public.Title)

	_, err = env.content.GetPublishedPage(context.Background(), "about-us-2")
	assert.ErrorIs(t, err, service.ErrNotFound)

	nav, err := env.content.NavPages(context.Background())
	require.NoError(t, err)
	require.Len(t, nav, 1)
	assert.Empty(t, nav[0].BodyHTML)

	require.NoError(t, env.content.DeletePage(ctx, about.ID))
	nav, err = env.content.NavPages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, nav)
}

func TestContentService_PostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()
	family := testutil.CreatePracticeArea(t, env.db, "Family Law")

	post, err := env.content.CreatePost(ctx, &domain.CreateBlogPostRequest{
		Title:          "Choosing a Divorce Lawyer",
		Body:           "Start with *experience*. Then ask about fees.",
		AuthorName:     "Editorial Team",
		PracticeAreaID: &family.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BlogPostStatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)
	assert.Equal(t, "Start with experience. Then ask about fees.", post.Excerpt)
	assert.Equal(t, "Family Law", post.PracticeAreaName)

	_, err = env.content.GetPublishedPost(context.Background(), post.Slug)
	assert.ErrorIs(t, err, service.ErrNotFound)

	published, err := env.content.Publish(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	firstPublished := *published.PublishedAt

	public, err := env.content.GetPublishedPost(context.Background(), "choosing-a-divorce-lawyer")
	require.NoError(t, err)
	assert.Contains(t, public.BodyHTML, "<em>experience</em>")

	list, err := env.content.ListPublishedPosts(context.Background(), "family-law", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	_, err = env.content.ListPublishedPosts(context.Background(), "no-such-area", 1, 10)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.content.Unpublish(ctx, post.ID)
	require.NoError(t, err)
	_, err = env.content.GetPublishedPost(context.Background(), post.Slug)
	assert.ErrorIs(t, err, service.ErrNotFound, "unpublishing clears the cached post")

	republished, err := env.content.Publish(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, firstPublished, *republished.PublishedAt)
}

func TestContentService_ListPostsByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	_, err := env.content.CreatePost(ctx, &domain.CreateBlogPostRequest{Title: "Draft one", Body: "x"})
	require.NoError(t, err)
	_, err = env.content.CreatePost(ctx, &domain.CreateBlogPostRequest{Title: "Live one", Body: "y", Status: domain.BlogPostStatusPublished})
	require.NoError(t, err)

	draft := domain.BlogPostStatusDraft
	resp, err := env.content.ListPosts(ctx, service.BlogListParams{Status: &draft})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)

	resp, err = env.content.ListPosts(ctx, service.BlogListParams{Search: "live"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	posts := resp.Data.([]domain.BlogPostDTO)
	assert.Empty(t, posts[0].Body, "lists omit the body")
}

func TestContentService_CoverUploadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := adminContext()

	post, err := env.content.CreatePost(ctx, &domain.CreateBlogPostRequest{Title: "With cover", Body: "x"})
	require.NoError(t, err)

	_, err = env.content.UploadCover(ctx, post.ID, "cover.pdf", "application/pdf", bytes.NewReader([]byte("%PDF")))
	assert.ErrorIs(t, err, service.ErrUnsupportedFileType)

	withCover, err := env.content.UploadCover(ctx, post.ID, "cover.jpg", "image/jpeg", bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)
	assert.NotEmpty(t, withCover.CoverImageURL)

	var stored domain.BlogPost
	require.NoError(t, env.db.First(&stored, "id = ?", post.ID).Error)

	require.NoError(t, env.content.DeletePost(ctx, post.ID))
	_, err = env.store.Download(ctx, stored.CoverImagePath)
	assert.Error(t, err)

	_, err = env.content.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
