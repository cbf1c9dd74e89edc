package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"slides/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore implements domain.SlideStore over two collections, "slides" and
// "slide_elements". SaveSlide is not transactional: it needs no replica set.
type MongoStore struct {
	client   *mongo.Client
	slides   *mongo.Collection
	elements *mongo.Collection
}

type slideDoc struct {
	ID                 string    `bson:"_id"`
	BackgroundColor    string    `bson:"backgroundColor"`
	BackgroundImage    string    `bson:"backgroundImage"`
	TransitionEffect   string    `bson:"transitionEffect"`
	TransitionDuration float64   `bson:"transitionDuration"`
	AutoAdvanceSeconds float64   `bson:"autoAdvanceSeconds"`
	CreatedAt          time.Time `bson:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

type elementDoc struct {
	ID                     string    `bson:"_id"`
	SlideID                string    `bson:"slideId"`
	Type                   string    `bson:"type"`
	PositionX              float64   `bson:"positionX"`
	PositionY              float64   `bson:"positionY"`
	Width                  float64   `bson:"width"`
	Height                 float64   `bson:"height"`
	Rotation               float64   `bson:"rotation"`
	LayerOrder             int       `bson:"layerOrder"`
	DisplayOrder           int       `bson:"displayOrder"`
	Content                *string   `bson:"content,omitempty"`
	SourceURL              *string   `bson:"sourceUrl,omitempty"`
	EntryAnimation         *string   `bson:"entryAnimation,omitempty"`
	EntryAnimationDuration *float64  `bson:"entryAnimationDuration,omitempty"`
	EntryAnimationDelay    *float64  `bson:"entryAnimationDelay,omitempty"`
	ExitAnimation          *string   `bson:"exitAnimation,omitempty"`
	ExitAnimationDuration  *float64  `bson:"exitAnimationDuration,omitempty"`
	ExitAnimationDelay     *float64  `bson:"exitAnimationDelay,omitempty"`
	CreatedAt              time.Time `bson:"createdAt"`
	UpdatedAt              time.Time `bson:"updatedAt"`
}

// NewMongoStore connects to the server addressed by cfg and verifies it answers.
func NewMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	uri, dbName := buildMongoURI(cfg)
	log.Printf("[Store] mongo: connecting to %s (database %s)", maskPassword(uri, cfg.Password), dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{client: client, slides: db.Collection("slides"), elements: db.Collection("slide_elements")}
	_, err = s.elements.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "slideId", Value: 1}, {Key: "layerOrder", Value: 1}},
	})
	if err != nil {
		log.Printf("[Store] mongo: create index: %v", err)
	}
	return s, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) GetSlide(ctx context.Context, id string) (*domain.Slide, error) {
	var doc slideDoc
	err := s.slides.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get slide %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get slide: %w", err)
	}
	elements, err := s.ListElements(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Slide{
		ID:                 doc.ID,
		Background:         domain.Background{Color: doc.BackgroundColor, Image: doc.BackgroundImage},
		TransitionEffect:   doc.TransitionEffect,
		TransitionDuration: doc.TransitionDuration,
		AutoAdvanceSeconds: doc.AutoAdvanceSeconds,
		Elements:           elements,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}, nil
}

// SaveSlide upserts the slide and, when sl.Elements is non-nil, replaces its
// elements.
func (s *MongoStore) SaveSlide(ctx context.Context, sl *domain.Slide) error {
	if err := sl.Background.Validate(); err != nil {
		return err
	}
	if sl.ID == "" {
		sl.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	var existing slideDoc
	err := s.slides.FindOne(ctx, bson.M{"_id": sl.ID}).Decode(&existing)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		sl.CreatedAt = now
	case err != nil:
		return fmt.Errorf("save slide: %w", err)
	default:
		sl.CreatedAt = existing.CreatedAt
	}
	sl.UpdatedAt = now

	doc := slideDoc{
		ID:                 sl.ID,
		BackgroundColor:    sl.Background.Color,
		BackgroundImage:    sl.Background.Image,
		TransitionEffect:   sl.TransitionEffect,
		TransitionDuration: sl.TransitionDuration,
		AutoAdvanceSeconds: sl.AutoAdvanceSeconds,
		CreatedAt:          sl.CreatedAt,
		UpdatedAt:          sl.UpdatedAt,
	}
	if _, err := s.slides.ReplaceOne(ctx, bson.M{"_id": sl.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("save slide: %w", err)
	}

	if sl.Elements == nil {
		return nil
	}
	docs := make([]any, 0, len(sl.Elements))
	for i := range sl.Elements {
		el := &sl.Elements[i]
		if err := el.Validate(); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if el.SlideElementID == "" {
			el.SlideElementID = uuid.New().String()
		}
		if el.CreatedAt.IsZero() {
			el.CreatedAt = now
		}
		el.UpdatedAt = now
		docs = append(docs, toElementDoc(sl.ID, *el))
	}
	if _, err := s.elements.DeleteMany(ctx, bson.M{"slideId": sl.ID}); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}
	if len(docs) > 0 {
		if _, err := s.elements.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert elements: %w", err)
		}
	}
	return nil
}

func (s *MongoStore) ListElements(ctx context.Context, slideID string) ([]domain.SlideElement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "layerOrder", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := s.elements.Find(ctx, bson.M{"slideId": slideID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	var docs []elementDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	elements := make([]domain.SlideElement, 0, len(docs))
	for _, d := range docs {
		elements = append(elements, d.element())
	}
	return elements, nil
}

func (s *MongoStore) CreateSlideElement(ctx context.Context, slideID string, payload domain.SlideElement) (*domain.SlideElement, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	n, err := s.slides.CountDocuments(ctx, bson.M{"_id": slideID})
	if err != nil {
		return nil, fmt.Errorf("lookup slide: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("slide %s: %w", slideID, domain.ErrNotFound)
	}
	el := payload
	el.SlideElementID = uuid.New().String()
	el.CreatedAt = time.Now().UTC()
	el.UpdatedAt = el.CreatedAt
	if _, err := s.elements.InsertOne(ctx, toElementDoc(slideID, el)); err != nil {
		return nil, fmt.Errorf("create element: %w", err)
	}
	return &el, nil
}

func (s *MongoStore) UpdateSlideElement(ctx context.Context, slideID, elementID string, payload domain.SlideElement) (*domain.SlideElement, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	filter := bson.M{"_id": elementID, "slideId": slideID}
	var existing elementDoc
	err := s.elements.FindOne(ctx, filter).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update element %s: %w", elementID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update element: %w", err)
	}

	el := payload
	el.SlideElementID = elementID
	el.CreatedAt = existing.CreatedAt
	el.UpdatedAt = time.Now().UTC()
	if _, err := s.elements.ReplaceOne(ctx, filter, toElementDoc(slideID, el)); err != nil {
		return nil, fmt.Errorf("update element: %w", err)
	}
	return &el, nil
}

func (s *MongoStore) DeleteSlideElement(ctx context.Context, slideID, elementID string) error {
	res, err := s.elements.DeleteOne(ctx, bson.M{"_id": elementID, "slideId": slideID})
	if err != nil {
		return fmt.Errorf("delete element: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete element %s: %w", elementID, domain.ErrNotFound)
	}
	return nil
}

func toElementDoc(slideID string, el domain.SlideElement) elementDoc {
	return elementDoc{
		ID:                     el.SlideElementID,
		SlideID:                slideID,
		Type:                   string(el.SlideElementType),
		PositionX:              el.PositionX,
		PositionY:              el.PositionY,
		Width:                  el.Width,
		Height:                 el.Height,
		Rotation:               el.Rotation,
		LayerOrder:             el.LayerOrder,
		DisplayOrder:           el.DisplayOrder,
		Content:                el.Content,
		SourceURL:              el.SourceURL,
		EntryAnimation:         el.EntryAnimation,
		EntryAnimationDuration: el.EntryAnimationDuration,
		EntryAnimationDelay:    el.EntryAnimationDelay,
		ExitAnimation:          el.ExitAnimation,
		ExitAnimationDuration:  el.ExitAnimationDuration,
		ExitAnimationDelay:     el.ExitAnimationDelay,
		CreatedAt:              el.CreatedAt,
		UpdatedAt:              el.UpdatedAt,
	}
}

func (d elementDoc) element() domain.SlideElement {
	return domain.SlideElement{
		SlideElementID:         d.ID,
		SlideElementType:       domain.ElementType(d.Type),
		PositionX:              d.PositionX,
		PositionY:              d.PositionY,
		Width:                  d.Width,
		Height:                 d.Height,
		Rotation:               d.Rotation,
		LayerOrder:             d.LayerOrder,
		DisplayOrder:           d.DisplayOrder,
		Content:                d.Content,
		SourceURL:              d.SourceURL,
		EntryAnimation:         d.EntryAnimation,
		EntryAnimationDuration: d.EntryAnimationDuration,
		EntryAnimationDelay:    d.EntryAnimationDelay,
		ExitAnimation:          d.ExitAnimation,
		ExitAnimationDuration:  d.ExitAnimationDuration,
		ExitAnimationDelay:     d.ExitAnimationDelay,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}
