package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordDoc is the normalized document shape written to the store. The full
// raw payload is always kept alongside the extracted fields so nothing is
// lost when extraction misses a field.
type RecordDoc struct {
	PulseID            string         `bson:"pulse_id,omitempty"`
	PulseName          string         `bson:"pulse_name,omitempty"`
	PulseCreated       string         `bson:"pulse_created,omitempty"`
	PulseModified      string         `bson:"pulse_modified,omitempty"`
	IndicatorCount     *int           `bson:"indicator_count,omitempty"`
	City               string         `bson:"city,omitempty"`
	TempC              *float64       `bson:"temp_c,omitempty"`
	Pressure           *int           `bson:"pressure,omitempty"`
	Humidity           *int           `bson:"humidity,omitempty"`
	ObservedAt         *time.Time     `bson:"observed_at,omitempty"`
	IngestionTimestamp time.Time      `bson:"ingestion_timestamp"`
	ConnectorName      string         `bson:"connector_name"`
	Source             string         `bson:"source"`
	SourceBaseURL      string         `bson:"source_base_url,omitempty"`
	SourceCity         string         `bson:"source_city,omitempty"`
	Raw                map[string]any `bson:"raw"`
}

// Result reports the outcome of a batch of writes.
type Result struct {
	Upserted int64
	Modified int64
	Inserted int64
	Failed   int64
}

func (r *Result) Add(o Result) {
	r.Upserted += o.Upserted
	r.Modified += o.Modified
	r.Inserted += o.Inserted
	r.Failed += o.Failed
}

// recordCollection is the slice of *mongo.Collection the repo needs.
type recordCollection interface {
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

type RecordsRepo struct {
	col recordCollection
}

func (c *Client) Records(collection string) *RecordsRepo {
	return &RecordsRepo{col: c.DB.Collection(collection)}
}

func (c *Client) EnsureRecordIndexes(ctx context.Context, collection string) error {
	col := c.DB.Collection(collection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pulse_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "ingestion_timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "source", Value: 1}}},
	})
	return err
}

// Upsert writes each document keyed by pulse_id, replacing any stored
// document with the same identifier. Documents without an identifier are
// inserted as new records. A failed write is logged and counted; the rest
// of the batch is still attempted.
func (r *RecordsRepo) Upsert(ctx context.Context, docs []RecordDoc) Result {
	var res Result
	for _, d := range docs {
		if d.PulseID == "" {
			if _, err := r.col.InsertOne(ctx, d); err != nil {
				slog.Error("insert failed", "source", d.Source, "err", err)
				res.Failed++
				continue
			}
			res.Inserted++
			continue
		}

		ur, err := r.col.ReplaceOne(ctx,
			bson.M{"pulse_id": d.PulseID}, d,
			options.Replace().SetUpsert(true))
		if err != nil {
			slog.Error("replace failed", "pulse_id", d.PulseID, "err", err)
			res.Failed++
			continue
		}
		switch {
		case ur.UpsertedCount > 0:
			res.Upserted++
		case ur.ModifiedCount > 0:
			res.Modified++
		}
	}
	return res
}
