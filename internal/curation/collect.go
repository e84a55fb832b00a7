package curation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/normalize"
	"github.com/sells-group/shoe-curation/internal/scrape"
	"github.com/sells-group/shoe-curation/internal/store"
	"github.com/sells-group/shoe-curation/pkg/youtube"
)

// CollectKind is what a collected URL points at.
type CollectKind string

const (
	CollectWebArticle   CollectKind = "WEB_ARTICLE"
	CollectYouTubeVideo CollectKind = "YOUTUBE_VIDEO"
)

// Draft review placeholders, replaced by the first summarization.
const (
	draftTitleFormat = "%s レビュー要約（収集中）"
	draftContent     = "レビューを収集中です。統合レビューを生成してください。"
)

// ErrCollectorUnavailable is returned when the service was built without
// the scraper or video client a collect request needs.
var ErrCollectorUnavailable = eris.New("curation: collector not configured")

// CollectInput names one URL to add to a shoe's AI summary review.
type CollectInput struct {
	ShoeID     string      `json:"shoeId"`
	SourceType CollectKind `json:"sourceType"`
	SourceURL  string      `json:"sourceUrl"`
}

// Validate reports every failed constraint.
func (in *CollectInput) Validate() error {
	var v model.ValidationError
	in.ShoeID = strings.TrimSpace(in.ShoeID)
	in.SourceURL = strings.TrimSpace(in.SourceURL)
	if in.ShoeID == "" {
		v.Add("shoeId", "is required")
	}
	switch in.SourceType {
	case CollectWebArticle:
	case CollectYouTubeVideo:
		if isHTTPURL(in.SourceURL) && youtube.ExtractVideoID(in.SourceURL) == "" {
			v.Add("sourceUrl", "is not a YouTube video URL")
		}
	default:
		v.Add("sourceType", "must be WEB_ARTICLE or YOUTUBE_VIDEO")
	}
	if !isHTTPURL(in.SourceURL) {
		v.Add("sourceUrl", "must be an absolute http(s) URL")
	}
	return v.Err()
}

// CollectResult reports the review the source was attached to.
type CollectResult struct {
	ReviewID      string                `json:"reviewId"`
	ReviewCreated bool                  `json:"reviewCreated"`
	Source        *model.AttachedSource `json:"aiSource"`
	SourceCount   int                   `json:"sourceCount"`
}

// Collect scrapes an article or looks up a video and attaches it to the
// shoe's AI summary review, creating a draft review when the shoe has none.
func (s *Service) Collect(ctx context.Context, in CollectInput) (*CollectResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	shoe, err := s.store.GetShoe(ctx, in.ShoeID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: collect")
	}

	var attached *model.AttachedSource
	switch in.SourceType {
	case CollectWebArticle:
		attached, err = s.collectArticle(ctx, in.SourceURL)
	case CollectYouTubeVideo:
		attached, err = s.collectVideo(ctx, in.SourceURL)
	}
	if err != nil {
		return nil, err
	}

	review, created, err := s.summaryReview(ctx, shoe)
	if err != nil {
		return nil, err
	}
	attached.ReviewID = review.ID
	if err := s.attach(ctx, attached); err != nil {
		return nil, err
	}

	updated, err := s.store.GetReview(ctx, review.ID)
	if err != nil {
		return nil, eris.Wrap(err, "curation: collect")
	}
	zap.L().Info("curation: source collected",
		zap.String("shoe_id", shoe.ID),
		zap.String("review_id", review.ID),
		zap.String("url", attached.URL),
		zap.Bool("review_created", created),
	)
	return &CollectResult{
		ReviewID:      review.ID,
		ReviewCreated: created,
		Source:        attached,
		SourceCount:   updated.SourceCount,
	}, nil
}

func (s *Service) collectArticle(ctx context.Context, rawURL string) (*model.AttachedSource, error) {
	if s.scraper == nil {
		return nil, eris.Wrap(ErrCollectorUnavailable, "curation: article scraper")
	}
	a, err := s.scraper.Scrape(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	rs := a.ReviewSource()
	rs.URL = normalize.CanonicalURL(rawURL)
	return &model.AttachedSource{ReviewSource: rs}, nil
}

func (s *Service) collectVideo(ctx context.Context, rawURL string) (*model.AttachedSource, error) {
	if s.videos == nil {
		return nil, eris.Wrap(ErrCollectorUnavailable, "curation: youtube client")
	}
	id := youtube.ExtractVideoID(rawURL)
	v, err := s.videos.Video(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "curation: look up video %s", id)
	}
	return &model.AttachedSource{
		ReviewSource: model.ReviewSource{
			Type:    model.SourceVideo,
			Title:   normalize.Text(v.Title),
			Content: normalize.Text(v.Description),
			Author:  normalize.Text(v.ChannelTitle),
			URL:     v.URL(),
		},
		VideoID: v.ID,
	}, nil
}

// summaryReview finds the shoe's AI summary review or creates a draft one.
func (s *Service) summaryReview(ctx context.Context, shoe *model.Shoe) (*model.Review, bool, error) {
	review, err := s.store.FindAISummaryReview(ctx, shoe.ID)
	if err == nil {
		return review, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, eris.Wrap(err, "curation: find summary review")
	}

	review = &model.Review{
		ShoeID:  shoe.ID,
		Type:    model.ReviewAISummary,
		Title:   fmt.Sprintf(draftTitleFormat, shoe.DisplayName()),
		Content: draftContent,
		IsDraft: true,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, false, eris.Wrap(err, "curation: create summary review")
	}
	return review, true, nil
}

func (s *Service) attach(ctx context.Context, a *model.AttachedSource) error {
	err := s.store.AttachSource(ctx, a)
	if errors.Is(err, store.ErrDuplicateSource) {
		v := &model.ValidationError{}
		v.Add("sourceUrl", "has already been collected for this review")
		return v
	}
	return eris.Wrap(err, "curation: attach source")
}
