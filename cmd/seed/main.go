package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/db"
	"github.com/freelancehub/backend/internal/handlers"
	"github.com/freelancehub/backend/internal/models"
	"github.com/freelancehub/backend/internal/utils"
)

// Seeds a development database with a handful of clients, freelancers and
// open projects. Safe to run twice: users are looked up by email first.

const seedPassword = "testpass123"

type seedUser struct {
	name    string
	email   string
	role    models.Role
	company string
	skills  []string
	bio     string
}

var clients = []seedUser{
	{name: "Alice Carter", email: "alice@client.test", role: models.RoleClient, company: "Carter Media", bio: "Marketing agency owner"},
	{name: "Ben Osei", email: "ben@client.test", role: models.RoleClient, company: "Osei Logistics", bio: "Runs a regional logistics firm"},
	{name: "Chen Wei", email: "chen@client.test", role: models.RoleClient, company: "Wei Retail", bio: "E-commerce founder"},
	{name: "Dana Lindqvist", email: "dana@client.test", role: models.RoleClient, company: "Lindqvist Consulting", bio: "Management consultant"},
	{name: "Emre Yilmaz", email: "emre@client.test", role: models.RoleClient, company: "Yilmaz Studio", bio: "Design studio lead"},
}

var freelancers = []seedUser{
	{name: "Farah Khan", email: "farah@freelancer.test", role: models.RoleFreelancer, skills: []string{"Go", "PostgreSQL", "Docker"}, bio: "Backend engineer, 6 years"},
	{name: "Gustavo Reyes", email: "gustavo@freelancer.test", role: models.RoleFreelancer, skills: []string{"React", "TypeScript", "Next.js"}, bio: "Frontend specialist"},
	{name: "Hana Sato", email: "hana@freelancer.test", role: models.RoleFreelancer, skills: []string{"Figma", "UI Design", "Branding"}, bio: "Product designer"},
	{name: "Ivan Petrov", email: "ivan@freelancer.test", role: models.RoleFreelancer, skills: []string{"Python", "Data Analysis", "Machine Learning"}, bio: "Data scientist"},
	{name: "Jade Mbeki", email: "jade@freelancer.test", role: models.RoleFreelancer, skills: []string{"WordPress", "SEO", "Copywriting"}, bio: "Web and content generalist"},
}

type seedProject struct {
	clientEmail string
	title       string
	description string
	budget      int64
}

var projects = []seedProject{
	{"alice@client.test", "Company website redesign", "Redesign our marketing site with a modern look. Figma mockups exist.", 250000},
	{"alice@client.test", "Email campaign automation", "Set up automated drip campaigns and tracking.", 80000},
	{"alice@client.test", "Brand style guide", "Full branding package with logo refresh and style guide.", 150000},
	{"ben@client.test", "Fleet tracking dashboard", "Realtime dashboard for truck GPS data, Go backend preferred.", 500000},
	{"ben@client.test", "Warehouse inventory API", "REST API over our PostgreSQL inventory database.", 300000},
	{"ben@client.test", "Driver mobile app mockups", "UI design for a driver check-in app.", 120000},
	{"chen@client.test", "Storefront migration to Next.js", "Move our shop frontend from legacy PHP to Next.js.", 400000},
	{"chen@client.test", "Product feed SEO audit", "Audit and fix SEO for 2000 product pages.", 90000},
	{"chen@client.test", "Sales data analysis", "Monthly sales analysis with Python, charts and a written summary.", 110000},
	{"dana@client.test", "Client portal backend", "Secure portal API with auth and file uploads, Go and PostgreSQL.", 350000},
	{"dana@client.test", "Pitch deck design", "20-slide investor deck, our content, your design.", 70000},
	{"dana@client.test", "Survey data pipeline", "Ingest and clean survey CSVs into a reporting database.", 130000},
	{"emre@client.test", "Portfolio site for the studio", "Minimal WordPress portfolio with custom theme.", 95000},
	{"emre@client.test", "Design system in Figma", "Component library and tokens for our product team.", 180000},
	{"emre@client.test", "Landing page copywriting", "Copy for three landing pages, conversion focused.", 60000},
}

func ensureUser(database *gorm.DB, su seedUser) (*models.User, error) {
	var existing models.User
	err := database.Where("email = ?", su.email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := utils.HashPassword(seedPassword)
	if err != nil {
		return nil, err
	}

	u := models.User{
		Name:     su.name,
		Email:    su.email,
		Password: hashed,
		Role:     su.role,
		IsActive: true,
	}

	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		switch su.role {
		case models.RoleClient:
			return tx.Create(&models.ClientProfile{
				UserID:      u.ID,
				CompanyName: su.company,
				Bio:         su.bio,
			}).Error
		case models.RoleFreelancer:
			skills, err := handlers.MarshalSkills(su.skills)
			if err != nil {
				return err
			}
			return tx.Create(&models.FreelancerProfile{
				UserID: u.ID,
				Skills: skills,
				Bio:    su.bio,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("created %s %s (%s)", su.role, su.name, su.email)
	return &u, nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	if err := database.AutoMigrate(
		&models.User{},
		&models.ClientProfile{},
		&models.FreelancerProfile{},
		&models.Project{},
		&models.Proposal{},
		&models.Message{},
		&models.Review{},
	); err != nil {
		log.Fatal("failed to migrate:", err)
	}

	clientByEmail := map[string]*models.User{}
	for _, su := range clients {
		u, err := ensureUser(database, su)
		if err != nil {
			log.Fatalf("seed client %s: %v", su.email, err)
		}
		clientByEmail[su.email] = u
	}

	var freelancerUsers []*models.User
	for _, su := range freelancers {
		u, err := ensureUser(database, su)
		if err != nil {
			log.Fatalf("seed freelancer %s: %v", su.email, err)
		}
		freelancerUsers = append(freelancerUsers, u)
	}

	for i, sp := range projects {
		owner := clientByEmail[sp.clientEmail]

		var existing models.Project
		err := database.Where("client_id = ? AND title = ?", owner.ID, sp.title).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("seed project %q: %v", sp.title, err)
		}

		project := models.Project{
			ClientID:    owner.ID,
			Title:       sp.title,
			Description: sp.description,
			Budget:      sp.budget,
			Status:      models.ProjectOpen,
		}
		if err := database.Create(&project).Error; err != nil {
			log.Fatalf("seed project %q: %v", sp.title, err)
		}

		// a couple of pending proposals on every third project
		if i%3 == 0 {
			for j := 0; j < 2 && j < len(freelancerUsers); j++ {
				f := freelancerUsers[(i+j)%len(freelancerUsers)]
				proposal := models.Proposal{
					ProjectID:    project.ID,
					FreelancerID: f.ID,
					CoverLetter:  fmt.Sprintf("Hi, I'm %s and I'd love to work on %q.", f.Name, sp.title),
					BidAmount:    sp.budget - int64(j+1)*5000,
					Status:       models.ProposalPending,
				}
				if err := database.Create(&proposal).Error; err != nil {
					log.Printf("seed proposal for %q: %v", sp.title, err)
				}
			}
		}

		log.Printf("created project %q", sp.title)
	}

	log.Printf("done. all seeded accounts use password %q", seedPassword)
}
