// Package mongostore stores users, with their courses embedded, and friendship
// entries in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yigit/studygraph/internal/app/models"
	"github.com/yigit/studygraph/internal/app/repositories"
	"github.com/yigit/studygraph/internal/pkg/apperrors"
	"github.com/yigit/studygraph/internal/pkg/dberrors"
	"github.com/yigit/studygraph/internal/pkg/friendship"
)

// Collection names
const (
	UsersCollection       = "users"
	FriendshipsCollection = "friendships"
)

// UserRepository is the MongoDB repositories.UserRepository
type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a UserRepository on the users collection of db
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection), now: time.Now}
}

// EnsureIndexes creates the unique email and username indexes
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_key")},
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("users_username_key").
				SetCollation(&options.Collation{Locale: "en", Strength: 2}).
				SetPartialFilterExpression(bson.D{{Key: "username", Value: bson.D{{Key: "$gt", Value: ""}}}}),
		},
		{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("users_created_at_idx")},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// Create inserts a new user document
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Courses == nil {
		user.Courses = []models.Course{}
	}

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if dberrors.IsUniqueViolation(err) {
			if isUsernameConflict(err) {
				return apperrors.ErrUsernameTaken
			}
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

var usernameIndex = regexp.MustCompile(`users_username_key|username_1`)

func isUsernameConflict(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if usernameIndex.MatchString(e.Message) {
				return true
			}
		}
	}
	return false
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user.Courses == nil {
		user.Courses = []models.Course{}
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// GetByUsername retrieves a user by username, ignoring case
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}},
		options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2}))
}

// ListUsers returns all users ordered by creation time
func (r *UserRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	for _, u := range users {
		if u.Courses == nil {
			u.Courses = []models.Course{}
		}
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.D) error {
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ReplaceCourses replaces the embedded course list and attachment fields in one update
func (r *UserRepository) ReplaceCourses(ctx context.Context, userID string, courses []models.Course, attachment *models.Attachment) error {
	if courses == nil {
		courses = []models.Course{}
	}
	set := bson.D{
		{Key: "courses", Value: courses},
		{Key: "updatedAt", Value: r.now().UTC()},
	}
	update := bson.D{}
	if attachment != nil {
		set = append(set,
			bson.E{Key: "csvFileName", Value: attachment.FileName},
			bson.E{Key: "csvUrl", Value: attachment.URL},
			bson.E{Key: "csvUploadedAt", Value: attachment.UploadedAt})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{
			{Key: "csvFileName", Value: ""}, {Key: "csvUrl", Value: ""}, {Key: "csvUploadedAt", Value: ""},
		}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	return r.updateByID(ctx, userID, update)
}

// UpdateOrigin sets the user's origin
func (r *UserRepository) UpdateOrigin(ctx context.Context, userID, origin string) error {
	return r.updateByID(ctx, userID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "origin", Value: origin},
		{Key: "updatedAt", Value: r.now().UTC()},
	}}})
}

type friendshipDoc struct {
	UserKey string   `bson:"_id"`
	Friends []string `bson:"friends"`
}

// FriendshipRepository is the MongoDB repositories.FriendshipRepository.
// Each user key is one document holding its friend list.
type FriendshipRepository struct {
	coll *mongo.Collection
}

var _ repositories.FriendshipRepository = (*FriendshipRepository)(nil)

// NewFriendshipRepository creates a FriendshipRepository on the friendships collection of db
func NewFriendshipRepository(db *mongo.Database) *FriendshipRepository {
	return &FriendshipRepository{coll: db.Collection(FriendshipsCollection)}
}

// GetLedger loads the whole ledger
func (r *FriendshipRepository) GetLedger(ctx context.Context) (friendship.Ledger, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("error loading friendships: %w", err)
	}

	var docs []friendshipDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding friendships: %w", err)
	}

	lists := make(map[string][]string, len(docs))
	for _, d := range docs {
		lists[d.UserKey] = d.Friends
	}
	return friendship.FromLists(lists), nil
}

// SaveEntries replaces the documents of keys in one ordered bulk write
func (r *FriendshipRepository) SaveEntries(ctx context.Context, ledger friendship.Ledger, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(keys))
	for _, key := range keys {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: key}}).
			SetReplacement(friendshipDoc{UserKey: key, Friends: ledger.Friends(key)}).
			SetUpsert(true))
	}

	if _, err := r.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("error saving friendships: %w", err)
	}
	return nil
}

// NewRepositories returns the MongoDB repository set for db
func NewRepositories(db *mongo.Database) *repositories.Repositories {
	return &repositories.Repositories{
		UserRepository:       NewUserRepository(db),
		FriendshipRepository: NewFriendshipRepository(db),
	}
}
