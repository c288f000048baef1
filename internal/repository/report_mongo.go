package repository

import (
	"GreenSnapAPI/internal/entity"
	"GreenSnapAPI/internal/helper"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const reportCollection = "reports"

// MongoReportStore keeps one document per report. Locations are GeoJSON points
// under a 2dsphere index.
type MongoReportStore struct {
	client *mongo.Client
	col    *mongo.Collection
	newID  func() string
	now    func() time.Time
}

func NewMongoReportStore(client *mongo.Client, dbName string) *MongoReportStore {
	return &MongoReportStore{
		client: client,
		col:    client.Database(dbName).Collection(reportCollection),
		newID:  helper.NewID,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoReportStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var errs []string
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_time", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "report_type", Value: 1}, {Key: "created_time", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}

	for _, m := range models {
		if _, err := s.col.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (s *MongoReportStore) Create(ctx context.Context, draft *entity.Report) (*entity.Report, error) {
	r, err := prepareDraft(draft, s.newID, s.now)
	if err != nil {
		return nil, err
	}

	// BSON dates keep milliseconds only.
	r.CreatedTime = r.CreatedTime.Truncate(time.Millisecond)
	r.PhotoTimestamp = r.PhotoTimestamp.Truncate(time.Millisecond)

	if _, err := s.col.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: id %s already used", entity.ErrInvalidReport, r.ID)
		}
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}
	return r, nil
}

func (s *MongoReportStore) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	var r entity.Report
	err := s.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	normalizeTimes(&r)
	return &r, nil
}

func (s *MongoReportStore) List(ctx context.Context, filter ReportFilter, sort ReportSort, page Page) iter.Seq2[*entity.Report, error] {
	query, err := mongoListFilter(filter, sort, page.Cursor)
	if err != nil {
		return errSeq(err)
	}

	opts := options.Find().SetSort(mongoListSort(sort))
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}

	return func(yield func(*entity.Report, error) bool) {
		cur, err := s.col.Find(ctx, query, opts)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query reports: %w", err))
			return
		}
		decodeCursor(ctx, cur, yield)
	}
}

// Update is an optimistic conditional write: the document is replaced only if
// its status is still the one the patch was computed against.
func (s *MongoReportStore) Update(ctx context.Context, id string, patch ReportPatch) (*entity.Report, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.ExpectedStatus != "" && current.Status != patch.ExpectedStatus {
		return nil, ErrStatusConflict
	}

	next, err := patch.apply(current)
	if err != nil {
		return nil, err
	}
	if next.Resolution != nil {
		next.Resolution.ResolvedAt = next.Resolution.ResolvedAt.Truncate(time.Millisecond)
	}

	set := bson.D{{Key: "status", Value: next.Status}}
	var update bson.D
	if next.Resolution != nil {
		set = append(set, bson.E{Key: "resolution", Value: next.Resolution})
		update = bson.D{{Key: "$set", Value: set}}
	} else {
		update = bson.D{{Key: "$set", Value: set}, {Key: "$unset", Value: bson.D{{Key: "resolution", Value: ""}}}}
	}

	filter := bson.D{{Key: "_id", Value: id}, {Key: "status", Value: current.Status}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated entity.Report
	err = s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetByID(ctx, id); errors.Is(getErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	normalizeTimes(&updated)
	return &updated, nil
}

func (s *MongoReportStore) Near(ctx context.Context, q NearQuery) iter.Seq2[*entity.Report, error] {
	pipeline := mongoNearPipeline(q)

	return func(yield func(*entity.Report, error) bool) {
		cur, err := s.col.Aggregate(ctx, pipeline)
		if err != nil {
			yield(nil, fmt.Errorf("failed to query nearby reports: %w", err))
			return
		}
		decodeCursor(ctx, cur, yield)
	}
}

func (s *MongoReportStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mongoListFilter(filter ReportFilter, sort ReportSort, cursor string) (bson.D, error) {
	query := bson.D{{Key: "status", Value: filter.status()}}
	if filter.ReportType != "" {
		query = append(query, bson.E{Key: "report_type", Value: filter.ReportType})
	}

	cursorTime, cursorID, hasCursor, err := decodePageCursor(cursor)
	if err != nil {
		return nil, err
	}
	if hasCursor {
		op := "$lt"
		if sort == SortOldestFirst {
			op = "$gt"
		}
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_time", Value: bson.D{{Key: op, Value: cursorTime}}}},
			bson.D{
				{Key: "created_time", Value: cursorTime},
				{Key: "_id", Value: bson.D{{Key: "$gt", Value: cursorID}}},
			},
		}})
	}
	return query, nil
}

func mongoListSort(sort ReportSort) bson.D {
	direction := -1
	if sort == SortOldestFirst {
		direction = 1
	}
	return bson.D{{Key: "created_time", Value: direction}, {Key: "_id", Value: 1}}
}

func mongoNearPipeline(q NearQuery) mongo.Pipeline {
	geoNear := bson.D{
		{Key: "near", Value: bson.D{
			{Key: "type", Value: entity.GeometryPoint},
			{Key: "coordinates", Value: bson.A{q.Point.Longitude(), q.Point.Latitude()}},
		}},
		{Key: "distanceField", Value: "distance"},
		{Key: "maxDistance", Value: q.RadiusMeters},
		{Key: "spherical", Value: true},
	}
	if q.Status != "" {
		geoNear = append(geoNear, bson.E{Key: "query", Value: bson.D{{Key: "status", Value: q.Status}}})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: geoNear}},
		{{Key: "$sort", Value: bson.D{{Key: "distance", Value: 1}, {Key: "_id", Value: 1}}}},
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}
	return pipeline
}

func decodeCursor(ctx context.Context, cur *mongo.Cursor, yield func(*entity.Report, error) bool) {
	defer cur.Close(context.WithoutCancel(ctx))

	for cur.Next(ctx) {
		var r entity.Report
		if err := cur.Decode(&r); err != nil {
			yield(nil, fmt.Errorf("failed to decode report: %w", err))
			return
		}
		normalizeTimes(&r)
		if !yield(&r, nil) {
			return
		}
	}

	if err := cur.Err(); err != nil {
		yield(nil, fmt.Errorf("failed to iterate reports: %w", err))
	}
}

func normalizeTimes(r *entity.Report) {
	r.CreatedTime = r.CreatedTime.UTC()
	r.PhotoTimestamp = r.PhotoTimestamp.UTC()
	if r.Resolution != nil {
		r.Resolution.ResolvedAt = r.Resolution.ResolvedAt.UTC()
	}
}
