// Package pagination implements the composite-key cursor scheme shared by
// every list endpoint: pages are bounded by an exclusive (ordering field, id)
// pair taken from the last row of the previous page, so rows inserted ahead of
// the cursor between fetches never shift or duplicate results.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// Cursor marks a page boundary. Value holds the raw ordering-field value of
// the last row; ID breaks ties between rows sharing that value.
type Cursor struct {
	Value string `json:"value"`
	ID    string `json:"id"`
}

// Encode renders the cursor as the opaque token clients echo back verbatim.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses an opaque cursor token. An empty token yields a nil cursor
// (first page); a malformed one is an error so callers can reject it rather
// than silently restart the listing.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}
	return &c, nil
}

// Limit clamps a requested page size to [1, max], falling back to def when the
// request carries none.
func Limit(requested, def, max int) int {
	if requested < 1 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}

// MongoBoundary builds the filter clause excluding everything at or before the
// cursor position. Descending lists use a strictly-decreasing boundary
// (field < v OR (field == v AND _id < id)); ascending lists invert the
// comparator.
func MongoBoundary(field string, value interface{}, id primitive.ObjectID, ascending bool) bson.M {
	op := "$lt"
	if ascending {
		op = "$gt"
	}
	return bson.M{"$or": bson.A{
		bson.M{field: bson.M{op: value}},
		bson.M{field: value, "_id": bson.M{op: id}},
	}}
}

// MongoSort returns the sort document matching MongoBoundary: the ordering
// field first, _id second, both in the same direction.
func MongoSort(field string, ascending bool) bson.D {
	dir := -1
	if ascending {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

// GormBoundary applies the equivalent boundary as a GORM scope. The column
// names are caller-supplied constants, never user input.
func GormBoundary(column string, value interface{}, id interface{}, ascending bool) func(*gorm.DB) *gorm.DB {
	op := "<"
	if ascending {
		op = ">"
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			column+" "+op+" ? OR ("+column+" = ? AND id "+op+" ?)",
			value, value, id,
		)
	}
}

// NextTimeCursor derives the cursor for the page after a full page ordered by
// a time field. It returns nil for short or empty pages; a nil cursor means
// the listing is terminal.
func NextTimeCursor(pageLen, limit int, lastValue time.Time, lastID string) *Cursor {
	if pageLen < limit {
		return nil
	}
	return &Cursor{Value: lastValue.UTC().Format(time.RFC3339Nano), ID: lastID}
}

// NextStringCursor is NextTimeCursor for string-ordered listings (user lists
// sorted by fullname).
func NextStringCursor(pageLen, limit int, lastValue, lastID string) *Cursor {
	if pageLen < limit {
		return nil
	}
	return &Cursor{Value: lastValue, ID: lastID}
}

// TimeValue parses the ordering value of a time-ordered cursor.
func (c *Cursor) TimeValue() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.Value)
}

// ObjectID parses the tie-break id of a Mongo-backed cursor.
func (c *Cursor) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.ID)
}
