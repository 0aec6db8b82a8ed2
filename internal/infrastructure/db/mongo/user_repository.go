package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crediya/iam-service/internal/core/domain"
)

const (
	collectionUsers    = "users"
	collectionRoles    = "roles"
	collectionCounters = "counters"
)

type mongoUser struct {
	ID               int64     `bson:"_id"`
	FirstName        string    `bson:"first_name"`
	LastName         string    `bson:"last_name"`
	Email            string    `bson:"email"`
	Birthdate        time.Time `bson:"birthdate"`
	IdentityDocument string    `bson:"identity_document"`
	PhoneNumber      string    `bson:"phone_number"`
	BaseSalary       string    `bson:"base_salary"`
	Address          string    `bson:"address"`
	RoleID           int64     `bson:"role_id"`
	Active           bool      `bson:"active"`
	Password         string    `bson:"password"`
}

type mongoRole struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
}

type UserRepository struct {
	users    *mongo.Collection
	roles    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(collectionUsers),
		roles:    db.Collection(collectionRoles),
		counters: db.Collection(collectionCounters),
	}
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.users.FindOne(ctx, bson.M{"email": email}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find user by email: %w", err)
	}
	return true, nil
}

func (r *UserRepository) FindByDocument(ctx context.Context, document string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"identity_document": document})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	if err := r.users.FindOne(ctx, filter, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain()
}

// FindAll returns every user ordered by id.
func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Save checks the role, allocates the next numeric id from the counters
// collection and inserts the user. The unique index on email is the final
// guard against a concurrent registration.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u.RoleID == 0 {
		return nil, domain.ErrInvalidReference
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err := r.roles.FindOne(ctx, bson.M{"_id": u.RoleID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrInvalidReference
	}
	if err != nil {
		return nil, fmt.Errorf("check role: %w", err)
	}

	id, err := r.nextID(ctx, collectionUsers)
	if err != nil {
		return nil, err
	}

	doc := toMongoUser(u)
	doc.ID = id
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &domain.DuplicateEmailError{Email: u.Email}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain()
}

func (r *UserRepository) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return counter.Seq, nil
}

// EnsureIndexes creates the unique email index and the document lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uk_users_email")},
		{Keys: bson.D{{Key: "identity_document", Value: 1}}, Options: options.Index().SetName("idx_users_document")},
	}
	if _, err := r.users.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

type RoleRepository struct {
	col *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionRoles)}
}

func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mr mongoRole
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&mr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.Role{ID: mr.ID, Name: mr.Name, Description: mr.Description}, nil
}

// SeedRoles inserts roles that are missing and leaves existing documents untouched.
func (r *RoleRepository) SeedRoles(ctx context.Context, roles []domain.Role) error {
	for _, role := range roles {
		_, err := r.col.UpdateOne(ctx,
			bson.M{"_id": role.ID},
			bson.M{"$setOnInsert": mongoRole{ID: role.ID, Name: role.Name, Description: role.Description}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role.Name, err)
		}
	}
	return nil
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Birthdate:        u.Birthdate,
		IdentityDocument: u.IdentityDocument,
		PhoneNumber:      u.PhoneNumber,
		Address:          u.Address,
		RoleID:           u.RoleID,
		Active:           u.Active,
		Password:         u.Password,
	}
	if u.BaseSalary != nil {
		doc.BaseSalary = u.BaseSalary.String()
	}
	return doc
}

func (m mongoUser) toDomain() (*domain.User, error) {
	u := &domain.User{
		ID:               m.ID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Email:            m.Email,
		Birthdate:        m.Birthdate.UTC(),
		IdentityDocument: m.IdentityDocument,
		PhoneNumber:      m.PhoneNumber,
		Address:          m.Address,
		RoleID:           m.RoleID,
		Active:           m.Active,
		Password:         m.Password,
	}
	if m.BaseSalary != "" {
		s, err := decimal.NewFromString(m.BaseSalary)
		if err != nil {
			return nil, fmt.Errorf("decode base salary of user %d: %w", m.ID, err)
		}
		u.BaseSalary = &s
	}
	return u, nil
}
