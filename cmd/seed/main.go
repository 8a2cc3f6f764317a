package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/jmoiron/sqlx"

	"github.com/hostelhub/hostel-booking-backend/internal/config"
	"github.com/hostelhub/hostel-booking-backend/internal/database"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
)

// seedBuilding describes one demo building. Room types cycle through
// single/double/triple/quad by room index.
type seedBuilding struct {
	ID          string
	Name        string
	Description string
	Amenities   []string
	RoomCount   int
}

var seedBuildings = []seedBuilding{
	{"bldg-1", "RK A", "Modern residence with state-of-the-art facilities", []string{"Wi-Fi", "Laundry Room", "Common Kitchen", "Study Lounge", "Recreation Room"}, 25},
	{"bldg-2", "RK B", "Cozy accommodation with a homely atmosphere", []string{"Wi-Fi", "Laundry Room", "Study Lounge", "Gym"}, 20},
	{"bldg-3", "H A", "Spacious rooms with excellent natural lighting", []string{"Wi-Fi", "Laundry Room", "Common Kitchen", "Cafeteria"}, 30},
	{"bldg-4", "H B", "Contemporary design with eco-friendly features", []string{"Wi-Fi", "Study Lounge", "Recreation Room", "Parking"}, 22},
	{"bldg-5", "H C", "Traditional architecture with modern amenities", []string{"Wi-Fi", "Laundry Room", "Gym", "Library"}, 18},
	{"bldg-6", "H D", "Quiet location perfect for studying", []string{"Wi-Fi", "Common Kitchen", "Study Lounge"}, 15},
	{"bldg-7", "H E", "Central location with easy campus access", []string{"Wi-Fi", "Laundry Room", "Recreation Room", "Parking"}, 28},
	{"bldg-8", "H F", "Newly renovated with premium facilities", []string{"Wi-Fi", "Gym", "Cafeteria", "Library"}, 24},
	{"bldg-9", "NK", "Garden view rooms with peaceful surroundings", []string{"Wi-Fi", "Laundry Room", "Common Kitchen", "Study Lounge"}, 20},
	{"bldg-10", "Lhawang", "High-rise building with panoramic views", []string{"Wi-Fi", "Recreation Room", "Gym", "Parking", "Cafeteria"}, 35},
}

var roomTypes = []models.RoomType{
	models.RoomTypeSingle,
	models.RoomTypeDouble,
	models.RoomTypeTriple,
	models.RoomTypeQuad,
}

func main() {
	var dbURLFlag string
	var force bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&force, "force", false, "seed even if buildings already exist")
	flag.Parse()

	// Optional .env so secrets stay off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM buildings"); err != nil {
		log.Fatalf("failed to check existing data: %v", err)
	}
	if count > 0 && !force {
		fmt.Printf("Database already has %d buildings, nothing to do (use -force to seed anyway)\n", count)
		return
	}

	if err := seed(db); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	fmt.Println("Database seeded with sample buildings, rooms and beds")
}

func seed(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, bldg := range seedBuildings {
		totalBeds := 0
		for i := 1; i <= bldg.RoomCount; i++ {
			totalBeds += models.BedsForRoomType(roomTypes[i%len(roomTypes)])
		}

		_, err := tx.Exec(
			`INSERT INTO buildings (id, name, description, total_rooms, total_beds, available_beds, amenities, image)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			bldg.ID, bldg.Name, bldg.Description, bldg.RoomCount, totalBeds, totalBeds,
			models.StringList(bldg.Amenities), "/placeholder.svg",
		)
		if err != nil {
			return fmt.Errorf("failed to insert building %s: %w", bldg.Name, err)
		}

		for i := 1; i <= bldg.RoomCount; i++ {
			roomNumber := fmt.Sprintf("%03d", i)
			roomType := roomTypes[i%len(roomTypes)]
			bedsInRoom := models.BedsForRoomType(roomType)
			roomID := fmt.Sprintf("%s-room-%s", bldg.ID, roomNumber)

			roomAmenities := []string{"Wi-Fi", "Study Desk", "Wardrobe"}
			if roomType == models.RoomTypeSingle {
				roomAmenities = append(roomAmenities, "Private Bathroom")
			} else {
				roomAmenities = append(roomAmenities, "Shared Bathroom")
			}

			_, err := tx.Exec(
				`INSERT INTO rooms (id, building_id, number, type, total_beds, available_beds, amenities, price)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				roomID, bldg.ID, roomNumber, roomType, bedsInRoom, bedsInRoom,
				models.StringList(roomAmenities), 5000.00,
			)
			if err != nil {
				return fmt.Errorf("failed to insert room %s: %w", roomNumber, err)
			}

			for j := 1; j <= bedsInRoom; j++ {
				bedID := fmt.Sprintf("%s-bed-%d", roomID, j)
				_, err := tx.Exec(
					`INSERT INTO beds (id, room_id, number, is_occupied) VALUES ($1, $2, $3, FALSE)`,
					bedID, roomID, j,
				)
				if err != nil {
					return fmt.Errorf("failed to insert bed %d: %w", j, err)
				}
			}
		}
	}

	return tx.Commit()
}
