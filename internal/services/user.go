package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/myflix-app/apiserver/internal/store"
	"github.com/myflix-app/apiserver/types"
)

const (
	emailTakenMessage    = "Sorry, a user with that email address already exists. Please use another email address."
	usernameTakenMessage = "Sorry, that username is already taken. Please choose another username."
	accountTakenMessage  = "Sorry, that username or email address is already taken."
	passwordTooLong      = "Password must be at most 72 bytes long."
	badLoginMessage      = "Incorrect username or password."
	userNotFoundMessage  = "User not found"
)

// NewUser carries the fields accepted at registration.
type NewUser struct {
	Username  string
	Password  string
	Email     string
	BirthDate *time.Time
}

// UserChanges carries a partial profile update. Nil fields are left alone.
type UserChanges struct {
	Username  *string
	Password  *string
	Email     *string
	BirthDate *time.Time
}

// UserService encapsulates account use-cases.
type UserService struct {
	docs     DocumentStore
	records  *RecordService
	activity *Activity
	cost     int
}

func NewUserService(docs DocumentStore, activity *Activity) *UserService {
	return &UserService{
		docs:     docs,
		records:  NewRecordService(docs),
		activity: activity,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an account and returns it without the password hash.
func (s *UserService) Register(ctx context.Context, in NewUser) (bson.D, error) {
	if err := s.checkAvailable(ctx, "", in.Username, in.Email); err != nil {
		return nil, err
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	doc, err := store.ToDocument(types.User{
		Username:       in.Username,
		Password:       hashed,
		Email:          in.Email,
		BirthDate:      in.BirthDate,
		FavoriteMovies: []string{},
		ToWatchMovies:  []string{},
		FavoriteActors: []string{},
	})
	if err != nil {
		return nil, internal("failed to encode user", err)
	}

	id, err := s.docs.InsertOne(ctx, types.UsersCollection, doc)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, badRequest(accountTakenMessage)
		}
		return nil, internal("failed to create user", err)
	}

	created, err := s.docs.FindOne(ctx, types.UsersCollection, bson.D{{Key: store.IDField, Value: id}}, hidePassword())
	if err != nil {
		return nil, internal("failed to load created user", err)
	}

	s.activity.Record(ctx, ActivityEvent{Type: ActivityRegistered, UserID: id})
	return withoutField(created, store.VersionField), nil
}

// Authenticate checks credentials and returns the matching user without
// the password hash.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bson.D, error) {
	doc, err := s.docs.FindOne(ctx, types.UsersCollection, bson.D{{Key: "username", Value: username}}, nil)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notAuthorized(badLoginMessage)
		}
		return nil, internal("failed to load user", err)
	}

	hash, _ := store.Lookup(doc, "password")
	hashed, _ := hash.(string)
	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) != nil {
		return nil, notAuthorized(badLoginMessage)
	}

	doc = withoutField(doc, "password")
	return withoutField(doc, store.VersionField), nil
}

// Get returns the caller's own profile.
func (s *UserService) Get(ctx context.Context, callerID, userID string) (any, error) {
	if err := Authorize(callerID, userID); err != nil {
		return nil, err
	}
	return s.records.FindRecord(ctx, types.UsersCollection, bson.D{{Key: store.IDField, Value: userID}}, hidePassword())
}

// Update applies changes to the caller's own profile and returns only the
// fields that were changed. The password is re-hashed and never returned.
func (s *UserService) Update(ctx context.Context, callerID, userID string, changes UserChanges) (bson.D, error) {
	if err := Authorize(callerID, userID); err != nil {
		return nil, err
	}

	var username, email string
	if changes.Username != nil {
		username = *changes.Username
	}
	if changes.Email != nil {
		email = *changes.Email
	}
	if err := s.checkAvailable(ctx, userID, username, email); err != nil {
		return nil, err
	}

	var fields bson.D
	if changes.Username != nil {
		fields = append(fields, bson.E{Key: "username", Value: *changes.Username})
	}
	if changes.Password != nil {
		hashed, err := s.hash(*changes.Password)
		if err != nil {
			return nil, err
		}
		fields = append(fields, bson.E{Key: "password", Value: hashed})
	}
	if changes.Email != nil {
		fields = append(fields, bson.E{Key: "email", Value: *changes.Email})
	}
	if changes.BirthDate != nil {
		fields = append(fields, bson.E{Key: "birthDate", Value: bson.NewDateTimeFromTime(*changes.BirthDate)})
	}
	if len(fields) == 0 {
		return nil, badRequest("No fields to update.")
	}

	updated, err := s.docs.UpdateOne(ctx, types.UsersCollection, bson.D{{Key: store.IDField, Value: userID}}, store.Set{Fields: fields})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, notFound(userNotFoundMessage)
		case errors.Is(err, store.ErrDuplicate):
			return nil, badRequest(accountTakenMessage)
		}
		return nil, internal("failed to update user", err)
	}

	out := bson.D{}
	for _, elem := range updated {
		if elem.Key == "password" {
			continue
		}
		if _, ok := store.Lookup(fields, elem.Key); ok {
			out = append(out, elem)
		}
	}

	s.activity.Record(ctx, ActivityEvent{Type: ActivityUpdated, UserID: userID})
	return out, nil
}

// Delete removes the caller's own account.
func (s *UserService) Delete(ctx context.Context, callerID, userID string) (string, error) {
	if err := Authorize(callerID, userID); err != nil {
		return "", err
	}

	if err := s.docs.DeleteOne(ctx, types.UsersCollection, bson.D{{Key: store.IDField, Value: userID}}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", notFound(userNotFoundMessage)
		}
		return "", internal("failed to delete user", err)
	}

	s.activity.Record(ctx, ActivityEvent{Type: ActivityDeleted, UserID: userID})
	return fmt.Sprintf("User with ID %s has been removed.", userID), nil
}

// checkAvailable rejects a username or email held by a user other than
// selfID. Empty values are not checked.
func (s *UserService) checkAvailable(ctx context.Context, selfID, username, email string) error {
	for _, c := range []struct{ field, value, message string }{
		{"username", username, usernameTakenMessage},
		{"email", email, emailTakenMessage},
	} {
		if c.value == "" {
			continue
		}
		doc, err := s.docs.FindOne(ctx, types.UsersCollection, bson.D{{Key: c.field, Value: c.value}}, bson.D{{Key: store.IDField, Value: 1}})
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return internal("failed to check "+c.field, err)
		}
		if id, _ := store.Lookup(doc, store.IDField); selfID == "" || id != selfID {
			return badRequest(c.message)
		}
	}
	return nil
}

// hash rejects passwords bcrypt cannot represent; it only reads 72 bytes.
func (s *UserService) hash(password string) (string, error) {
	if len(password) > 72 {
		return "", badRequest(passwordTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", internal("failed to hash password", err)
	}
	return string(hashed), nil
}

func hidePassword() bson.D {
	return bson.D{{Key: "password", Value: 0}}
}
