package database

import (
	"context"
	"fmt"
	"time"

	"disasterguardian/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminEmail     = "admin@disasterguardian.com"
	CitizenEmail   = "citizen@test.com"
	VolunteerEmail = "volunteer@test.com"
)

// Seeder represents a database seeder. Every seeder is idempotent.
type Seeder struct {
	Name        string
	Description string
	Seed        func(context.Context, *mongo.Database, SeedOptions) error
}

type SeedOptions struct {
	// ResetAdmin deletes and re-creates the admin account
	ResetAdmin bool
}

var seeders = []Seeder{
	{
		Name:        "admin",
		Description: "Create the administrator account",
		Seed:        seedAdmin,
	},
	{
		Name:        "users",
		Description: "Create citizen and volunteer test accounts",
		Seed:        seedTestUsers,
	},
	{
		Name:        "demo",
		Description: "Create a verified volunteer, officers and demo incidents",
		Seed:        seedDemoData,
	},
}

// SeederNames lists the registered seeders in run order
func SeederNames() []string {
	names := make([]string, 0, len(seeders))
	for _, s := range seeders {
		names = append(names, s.Name)
	}
	return names
}

// RunSeeders executes the named seeders, or all of them when names is empty
func RunSeeders(ctx context.Context, db *mongo.Database, opts SeedOptions, names ...string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for n := range want {
		if !knownSeeder(n) {
			return fmt.Errorf("unknown seeder %q", n)
		}
	}

	seedersCol := db.Collection("seeders")
	logrus.Info("🌱 Running database seeders...")

	for _, seeder := range seeders {
		if len(want) > 0 && !want[seeder.Name] {
			continue
		}

		logrus.Infof("🔄 Running seeder: %s", seeder.Name)
		if err := seeder.Seed(ctx, db, opts); err != nil {
			return fmt.Errorf("seeder %s failed: %w", seeder.Name, err)
		}

		_, err := seedersCol.UpdateOne(ctx,
			bson.M{"name": seeder.Name},
			bson.M{"$set": bson.M{"lastRunAt": time.Now()}, "$setOnInsert": bson.M{"createdAt": time.Now()}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			logrus.Warnf("Failed to record seeder %s: %v", seeder.Name, err)
		}

		logrus.Infof("✅ Seeder %s completed", seeder.Name)
	}

	logrus.Info("🌱 All seeders completed")
	return nil
}

func knownSeeder(name string) bool {
	for _, s := range seeders {
		if s.Name == name {
			return true
		}
	}
	return false
}

func seedAdmin(ctx context.Context, db *mongo.Database, opts SeedOptions) error {
	users := db.Collection(UsersCollection)

	if opts.ResetAdmin {
		res, err := users.DeleteOne(ctx, bson.M{"email": AdminEmail})
		if err != nil {
			return err
		}
		if res.DeletedCount > 0 {
			logrus.Info("🗑️ Deleted existing admin user")
		}
	}

	created, err := ensureUser(ctx, users, models.User{
		Name:  "Admin User",
		Email: AdminEmail,
		Phone: "1234567890",
		Role:  models.RoleAdmin,
	}, "admin123")
	if err != nil {
		return err
	}
	if created {
		logrus.Infof("👤 Admin user created: %s", AdminEmail)
	}
	return nil
}

func seedTestUsers(ctx context.Context, db *mongo.Database, _ SeedOptions) error {
	users := db.Collection(UsersCollection)

	accounts := []struct {
		user     models.User
		password string
	}{
		{models.User{Name: "Test Citizen", Email: CitizenEmail, Phone: "9876543210", Role: models.RoleCitizen}, "citizen123"},
		{models.User{Name: "Test Volunteer", Email: VolunteerEmail, Phone: "8765432109", Role: models.RoleVolunteer}, "volunteer123"},
	}

	for _, acc := range accounts {
		created, err := ensureUser(ctx, users, acc.user, acc.password)
		if err != nil {
			return err
		}
		if created {
			logrus.Infof("👤 %s user created: %s", acc.user.Role, acc.user.Email)
		}
	}
	return nil
}

// ensureUser inserts the user unless the email already exists
func ensureUser(ctx context.Context, users *mongo.Collection, user models.User, password string) (bool, error) {
	count, err := users.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.PasswordHash = string(hash)
	user.Language = "en"
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := users.InsertOne(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

func seedDemoData(ctx context.Context, db *mongo.Database, opts SeedOptions) error {
	// demo data hangs off the test accounts
	if err := seedTestUsers(ctx, db, opts); err != nil {
		return err
	}

	var volunteer, citizen models.User
	users := db.Collection(UsersCollection)
	if err := users.FindOne(ctx, bson.M{"email": VolunteerEmail}).Decode(&volunteer); err != nil {
		return fmt.Errorf("volunteer user: %w", err)
	}
	if err := users.FindOne(ctx, bson.M{"email": CitizenEmail}).Decode(&citizen); err != nil {
		return fmt.Errorf("citizen user: %w", err)
	}

	now := time.Now()
	_, err := db.Collection(VolunteersCollection).UpdateOne(ctx,
		bson.M{"userId": volunteer.ID},
		bson.M{
			"$set": bson.M{
				"skills":     "First Aid, Driving",
				"vehicle":    "Car",
				"status":     models.VolunteerStatusVerified,
				"reviewedAt": now,
			},
			"$setOnInsert": bson.M{
				"governmentId": "DEMO-0001",
				"docsUrl":      "",
				"appliedAt":    now,
				"createdAt":    now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("volunteer profile: %w", err)
	}

	if err := seedDemoOfficers(ctx, db, now); err != nil {
		return err
	}

	incidents := db.Collection(IncidentsCollection)
	count, err := incidents.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		logrus.Infof("Incidents already present: %d", count)
		return nil
	}

	base := func(t models.IncidentType, loc *models.IncidentLocation) models.Incident {
		return models.Incident{
			ID:               primitive.NewObjectID(),
			ReporterID:       citizen.ID,
			Type:             t,
			Description:      "Demo incident for testing",
			Location:         loc,
			Priority:         "high",
			Severity:         "high",
			PeopleInvolved:   2,
			Images:           []string{},
			Status:           models.IncidentStatusOpen,
			AssignedOfficers: []models.AssignedOfficer{},
			NotifiedContacts: []string{},
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	medical := base(models.IncidentTypeSOS, models.PointLocation(17.3850, 78.4867, "Hyderabad"))
	medical.EmergencyType = "medical"
	flood := base(models.IncidentTypeRisk, models.PointLocation(17.3850, 78.4867, "Hyderabad"))
	flood.RiskType = "flood"
	accident := base(models.IncidentTypeSOS, models.PointLocation(17.44, 78.49, "Secunderabad"))
	accident.EmergencyType = "accident"

	if _, err := incidents.InsertMany(ctx, []interface{}{medical, flood, accident}); err != nil {
		return err
	}
	logrus.Info("📍 Inserted demo incidents")
	return nil
}

func seedDemoOfficers(ctx context.Context, db *mongo.Database, now time.Time) error {
	officers := db.Collection(OfficersCollection)
	count, err := officers.CountDocuments(ctx, bson.M{})
	if err != nil || count > 0 {
		return err
	}

	demo := []models.Officer{
		{Name: "Ravi Kumar", Type: models.OfficerTypeNDRF, OrganizationName: "NDRF 10th Battalion", Phone: "9000000001",
			Location: models.OfficerLocation{Address: "Hyderabad", Lat: 17.39, Lng: 78.48}, Skills: []string{"flood rescue"}, VehicleType: "Boat"},
		{Name: "Meera Shah", Type: models.OfficerTypeMedical, OrganizationName: "City General Hospital", Phone: "9000000002",
			Location: models.OfficerLocation{Address: "Secunderabad", Lat: 17.44, Lng: 78.50}, Skills: []string{"trauma care"}, VehicleType: "Ambulance"},
		{Name: "Arjun Rao", Type: models.OfficerTypeFirefighter, OrganizationName: "Fire Station 4", Phone: "9000000003",
			Location: models.OfficerLocation{Address: "Begumpet", Lat: 17.44, Lng: 78.46}, Skills: []string{"fire suppression"}, VehicleType: "Fire engine"},
	}

	docs := make([]interface{}, 0, len(demo))
	for _, o := range demo {
		o.ID = primitive.NewObjectID()
		o.Status = models.OfficerStatusAvailable
		o.EquipmentAvailable = []string{}
		o.CurrentAssignments = []models.OfficerAssignment{}
		o.CreatedAt = now
		o.UpdatedAt = now
		docs = append(docs, o)
	}

	_, err = officers.InsertMany(ctx, docs)
	if err == nil {
		logrus.Info("🚒 Inserted demo officers")
	}
	return err
}
