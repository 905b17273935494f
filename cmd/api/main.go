package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/workdesk-hq/attendance-backend-go/internal/config"
	appHTTP "github.com/workdesk-hq/attendance-backend-go/internal/handler/http"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/cron"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/database"
	"github.com/workdesk-hq/attendance-backend-go/internal/pkg/jwt"
	"github.com/workdesk-hq/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/workdesk-hq/attendance-backend-go/internal/service/attendance"
	authService "github.com/workdesk-hq/attendance-backend-go/internal/service/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	transactor := postgresql.NewTransactor(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)
	deriver := attendanceService.NewDeriver()

	attendanceSvc := attendanceService.NewAttendanceService(
		transactor,
		attendanceRepo,
		employeeRepo,
		deriver,
		cfg.Attendance,
	)
	authSvc := authService.NewAuthService(employeeRepo, jwtService)

	authHandler := appHTTP.NewAuthHandler(jwtService, authSvc)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)

	router := appHTTP.NewRouter(
		jwtService,
		authHandler,
		attendanceHandler,
		cfg.App.Env,
	)

	scheduler := cron.NewScheduler()
	attendanceJobs := cron.NewAttendanceJobs(attendanceRepo, attendanceSvc, employeeRepo)
	attendanceJobs.RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		scheduler.Stop()
		db.Close()
		os.Exit(0)
	}()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
