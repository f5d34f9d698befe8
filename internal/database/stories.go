package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yassinebk/TaleForge/internal/data"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// withTransaction runs fn inside a session transaction so multi-document
// mutations (story + chapters mirror + user scores) commit or abort as one.
func (s *service) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.db.StartSession()
	if err != nil {
		return fmt.Errorf("error starting session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *service) CreateStory(story *data.Story) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	story.Content = []data.Chapter{}
	story.PendingChapters = []data.PendingChapter{}
	story.CreatedAt = time.Now()
	story.UpdatedAt = time.Now()

	res, err := s.stories().InsertOne(ctx, story)
	if err != nil {
		return fmt.Errorf("error inserting story: %v", err)
	}

	story.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *service) GetStory(id primitive.ObjectID) (*data.Story, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.getStory(ctx, id)
}

func (s *service) getStory(ctx context.Context, id primitive.ObjectID) (*data.Story, error) {
	var story data.Story
	err := s.stories().FindOne(ctx, primitive.M{"_id": id}).Decode(&story)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("error fetching story: %v", err)
	}
	return &story, nil
}

func (s *service) GetStories(page, limit int) ([]data.Story, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	skip := (page - 1) * limit
	findOptions := options.Find().
		SetSort(primitive.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := s.stories().Find(ctx, primitive.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("error fetching stories: %v", err)
	}
	defer cursor.Close(ctx)

	var stories []data.Story
	if err := cursor.All(ctx, &stories); err != nil {
		return nil, fmt.Errorf("error decoding stories: %v", err)
	}

	return stories, nil
}

func (s *service) VoteStory(id primitive.ObjectID, delta int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.stories().UpdateOne(ctx,
		primitive.M{"_id": id},
		primitive.M{"$inc": primitive.M{"votes": delta}})
	if err != nil {
		return fmt.Errorf("error voting on story: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrStoryNotFound
	}
	return nil
}

// ReplaceContent swaps the whole chapter list in one go. Author-only; the
// chapters mirror is rebuilt inside the same transaction.
func (s *service) ReplaceContent(storyID, caller primitive.ObjectID, chapters []data.Chapter) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	story, err := s.getStory(ctx, storyID)
	if err != nil {
		return err
	}
	if story.Author != caller {
		return ErrNotAuthor
	}

	now := time.Now()
	for i := range chapters {
		if chapters[i].ChapterID == "" {
			chapters[i].ChapterID = uuid.NewString()
		}
		if chapters[i].CreatedBy.IsZero() {
			chapters[i].CreatedBy = caller
		}
		if chapters[i].CreatedAt.IsZero() {
			chapters[i].CreatedAt = now
		}
	}

	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		_, err := s.stories().UpdateOne(sc,
			primitive.M{"_id": storyID},
			primitive.M{"$set": primitive.M{"content": chapters, "updated_at": now}})
		if err != nil {
			return fmt.Errorf("error replacing content: %v", err)
		}

		if _, err := s.chapters().DeleteMany(sc, primitive.M{"story_id": storyID}); err != nil {
			return fmt.Errorf("error clearing chapter mirror: %v", err)
		}
		if len(chapters) == 0 {
			return nil
		}
		docs := make([]any, 0, len(chapters))
		for _, ch := range chapters {
			docs = append(docs, data.ChapterDoc{StoryID: storyID, Chapter: ch})
		}
		if _, err := s.chapters().InsertMany(sc, docs); err != nil {
			return fmt.Errorf("error rebuilding chapter mirror: %v", err)
		}
		return nil
	})
}

// AddChapter appends a chapter. The author publishes directly; anyone else
// lands in the pending queue and waits for the author's decision.
func (s *service) AddChapter(storyID, caller primitive.ObjectID, chapter data.Chapter) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	story, err := s.getStory(ctx, storyID)
	if err != nil {
		return false, err
	}

	now := time.Now()
	if story.Author == caller {
		chapter.ChapterID = uuid.NewString()
		chapter.CreatedBy = caller
		chapter.CreatedAt = now
		err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
			_, err := s.stories().UpdateOne(sc,
				primitive.M{"_id": storyID},
				primitive.M{
					"$push": primitive.M{"content": chapter},
					"$set":  primitive.M{"updated_at": now},
				})
			if err != nil {
				return fmt.Errorf("error appending chapter: %v", err)
			}
			_, err = s.chapters().InsertOne(sc, data.ChapterDoc{StoryID: storyID, Chapter: chapter})
			if err != nil {
				return fmt.Errorf("error mirroring chapter: %v", err)
			}
			return nil
		})
		return false, err
	}

	pending := data.PendingChapter{
		PendingID:   uuid.NewString(),
		Title:       chapter.Title,
		Content:     chapter.Content,
		Summary:     chapter.Summary,
		Embedding:   chapter.Embedding,
		RequestedBy: caller,
		Status:      data.PendingStatusPending,
		Type:        data.PendingTypeNewChapter,
		CreatedAt:   now,
	}
	_, err = s.stories().UpdateOne(ctx,
		primitive.M{"_id": storyID},
		primitive.M{"$push": primitive.M{"pending_chapters": pending}})
	if err != nil {
		return false, fmt.Errorf("error queueing chapter: %v", err)
	}
	return true, nil
}

// EditChapter replaces an accepted chapter addressed by its stable id. The
// author edits in place; anyone else proposes an edit for approval.
func (s *service) EditChapter(storyID, caller primitive.ObjectID, chapterID string, chapter data.Chapter) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	story, err := s.getStory(ctx, storyID)
	if err != nil {
		return false, err
	}

	original, ok := findChapter(story.Content, chapterID)
	if !ok {
		return false, ErrChapterNotFound
	}

	now := time.Now()
	if story.Author == caller {
		replacement := data.Chapter{
			ChapterID: chapterID,
			Title:     chapter.Title,
			Content:   chapter.Content,
			Summary:   chapter.Summary,
			Embedding: chapter.Embedding,
			CreatedBy: original.CreatedBy,
			Likes:     original.Likes,
			CreatedAt: original.CreatedAt,
		}
		err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
			return s.overwriteChapter(sc, storyID, replacement, now)
		})
		return false, err
	}

	pending := data.PendingChapter{
		PendingID:         uuid.NewString(),
		Title:             chapter.Title,
		Content:           chapter.Content,
		Summary:           chapter.Summary,
		Embedding:         chapter.Embedding,
		RequestedBy:       caller,
		Status:            data.PendingStatusPending,
		Type:              data.PendingTypeEditChapter,
		OriginalChapterID: chapterID,
		CreatedAt:         now,
	}
	_, err = s.stories().UpdateOne(ctx,
		primitive.M{"_id": storyID},
		primitive.M{"$push": primitive.M{"pending_chapters": pending}})
	if err != nil {
		return false, fmt.Errorf("error queueing chapter edit: %v", err)
	}
	return true, nil
}

func (s *service) overwriteChapter(ctx context.Context, storyID primitive.ObjectID, replacement data.Chapter, now time.Time) error {
	res, err := s.stories().UpdateOne(ctx,
		primitive.M{"_id": storyID, "content.chapter_id": replacement.ChapterID},
		primitive.M{"$set": primitive.M{"content.$": replacement, "updated_at": now}})
	if err != nil {
		return fmt.Errorf("error overwriting chapter: %v", err)
	}
	if res.MatchedCount == 0 {
		return ErrChapterNotFound
	}

	_, err = s.chapters().UpdateOne(ctx,
		primitive.M{"story_id": storyID, "chapter_id": replacement.ChapterID},
		primitive.M{"$set": data.ChapterDoc{StoryID: storyID, Chapter: replacement}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error updating chapter mirror: %v", err)
	}
	return nil
}

func (s *service) LikeChapter(storyID primitive.ObjectID, chapterID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.stories().UpdateOne(ctx,
		primitive.M{"_id": storyID, "content.chapter_id": chapterID},
		primitive.M{"$inc": primitive.M{"content.$.likes": 1}})
	if err != nil {
		return fmt.Errorf("error liking chapter: %v", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.getStory(ctx, storyID); err != nil {
			return err
		}
		return ErrChapterNotFound
	}

	_, err = s.chapters().UpdateOne(ctx,
		primitive.M{"story_id": storyID, "chapter_id": chapterID},
		primitive.M{"$inc": primitive.M{"likes": 1}})
	if err != nil {
		return fmt.Errorf("error updating chapter mirror: %v", err)
	}
	return nil
}

func (s *service) ListPendingChapters(storyID, caller primitive.ObjectID) ([]data.PendingChapter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	story, err := s.getStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.Author != caller {
		return nil, ErrNotAuthor
	}
	return story.PendingChapters, nil
}

// ApprovePendingChapter merges a pending entry into the published content,
// removes it from the queue and credits the requester, all in one
// transaction. Approving the same pending id twice is a clean not-found.
func (s *service) ApprovePendingChapter(storyID, caller primitive.ObjectID, pendingID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		story, err := s.getStory(sc, storyID)
		if err != nil {
			return err
		}
		if story.Author != caller {
			return ErrNotAuthor
		}

		pending, ok := findPendingChapter(story.PendingChapters, pendingID)
		if !ok {
			return ErrPendingNotFound
		}

		now := time.Now()
		switch pending.Type {
		case data.PendingTypeNewChapter:
			chapter := cleanChapter(pending, uuid.NewString(), now)
			_, err := s.stories().UpdateOne(sc,
				primitive.M{"_id": storyID},
				primitive.M{
					"$push": primitive.M{"content": chapter},
					"$set":  primitive.M{"updated_at": now},
				})
			if err != nil {
				return fmt.Errorf("error publishing chapter: %v", err)
			}
			_, err = s.chapters().InsertOne(sc, data.ChapterDoc{StoryID: storyID, Chapter: chapter})
			if err != nil {
				return fmt.Errorf("error mirroring chapter: %v", err)
			}

		case data.PendingTypeEditChapter:
			original, ok := findChapter(story.Content, pending.OriginalChapterID)
			if !ok {
				return ErrChapterNotFound
			}
			replacement := cleanChapter(pending, original.ChapterID, original.CreatedAt)
			replacement.Likes = original.Likes
			if err := s.overwriteChapter(sc, storyID, replacement, now); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown pending chapter type %q", pending.Type)
		}

		_, err = s.stories().UpdateOne(sc,
			primitive.M{"_id": storyID},
			primitive.M{"$pull": primitive.M{"pending_chapters": primitive.M{"pending_id": pendingID}}})
		if err != nil {
			return fmt.Errorf("error removing pending chapter: %v", err)
		}

		return s.awardContribution(sc, pending.RequestedBy, story.Title)
	})
}

func (s *service) RejectPendingChapter(storyID, caller primitive.ObjectID, pendingID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	story, err := s.getStory(ctx, storyID)
	if err != nil {
		return err
	}
	if story.Author != caller {
		return ErrNotAuthor
	}
	if _, ok := findPendingChapter(story.PendingChapters, pendingID); !ok {
		return ErrPendingNotFound
	}

	_, err = s.stories().UpdateOne(ctx,
		primitive.M{"_id": storyID},
		primitive.M{"$pull": primitive.M{"pending_chapters": primitive.M{"pending_id": pendingID}}})
	if err != nil {
		return fmt.Errorf("error rejecting pending chapter: %v", err)
	}
	return nil
}

func findChapter(chapters []data.Chapter, chapterID string) (data.Chapter, bool) {
	for _, ch := range chapters {
		if ch.ChapterID == chapterID {
			return ch, true
		}
	}
	return data.Chapter{}, false
}

func findPendingChapter(pending []data.PendingChapter, pendingID string) (data.PendingChapter, bool) {
	for _, p := range pending {
		if p.PendingID == pendingID {
			return p, true
		}
	}
	return data.PendingChapter{}, false
}

// cleanChapter strips the workflow fields off a pending entry, keeping only
// what belongs in published content.
func cleanChapter(p data.PendingChapter, chapterID string, createdAt time.Time) data.Chapter {
	return data.Chapter{
		ChapterID: chapterID,
		Title:     p.Title,
		Content:   p.Content,
		Summary:   p.Summary,
		Embedding: p.Embedding,
		CreatedBy: p.RequestedBy,
		Likes:     0,
		CreatedAt: createdAt,
	}
}
