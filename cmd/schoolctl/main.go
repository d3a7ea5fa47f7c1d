package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/alvishnu/school-desk/internal/feeview"
	"github.com/alvishnu/school-desk/internal/gateway"
	"github.com/alvishnu/school-desk/internal/models"
	"github.com/alvishnu/school-desk/internal/roster"
	"github.com/alvishnu/school-desk/pkg/config"
	appErrors "github.com/alvishnu/school-desk/pkg/errors"
	"github.com/alvishnu/school-desk/pkg/export"
	"github.com/alvishnu/school-desk/pkg/logger"
)

const usage = `schoolctl drives the school administration backend.

Usage:
  schoolctl <command> [flags]

Commands:
  login     authenticate and save the session for later runs
  list      list students (one page)
  show      show one student
  register  register a new student
  edit      update an existing student
  delete    delete a student
  fees      show the fee ledger for every student
  export    export the fee ledger as CSV or PDF
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(fmt.Errorf("load config: %w", err))
	}
	logr, err := logger.New(cfg)
	if err != nil {
		fatal(fmt.Errorf("init logger: %w", err))
	}
	defer logr.Sync() //nolint:errcheck

	metrics := gateway.NewMetrics(prometheus.NewRegistry())
	client, err := gateway.New(cfg.API, logr, gateway.WithMetrics(metrics))
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	app := &app{cfg: cfg, logger: logr, client: client}
	app.restoreSession()

	switch os.Args[1] {
	case "login":
		err = app.login(ctx, os.Args[2:])
	case "list":
		err = app.list(ctx, os.Args[2:])
	case "show":
		err = app.show(ctx, os.Args[2:])
	case "register":
		err = app.register(ctx, os.Args[2:])
	case "edit":
		err = app.edit(ctx, os.Args[2:])
	case "delete":
		err = app.delete(ctx, os.Args[2:])
	case "fees":
		err = app.fees(ctx, os.Args[2:])
	case "export":
		err = app.export(ctx, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *gateway.Client
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args) //nolint:errcheck

	if err := a.client.Login(ctx, *email, *password); err != nil {
		return err
	}
	if err := a.saveSession(); err != nil {
		a.logger.Warn("session not persisted, login lasts this run only", zap.Error(err))
		fmt.Println("logged in")
		return nil
	}
	fmt.Println("logged in, session saved")
	return nil
}

// sessionPath is where the session token survives between runs. Override
// with SCHOOLCTL_SESSION; the default lives under the user config dir.
func sessionPath() (string, error) {
	if path := os.Getenv("SCHOOLCTL_SESSION"); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "schoolctl", "session"), nil
}

func (a *app) restoreSession() {
	path, err := sessionPath()
	if err != nil {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	a.client.RestoreSession(strings.TrimSpace(string(raw)))
}

func (a *app) saveSession() error {
	token := a.client.SessionToken()
	if token == "" {
		return fmt.Errorf("no session cookie received")
	}
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 10, "page size")
	fs.Parse(args) //nolint:errcheck

	r := roster.New(a.client, a.logger)
	if err := r.Load(ctx, *page, *limit); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROLL\tNAME\tCLASS\tSECTION\tPARENTS\tPHONE")
	for _, s := range r.Students() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.RollNumber, s.StudentName, s.Class, s.Section, s.ParentsName, s.PhoneNumber)
	}
	w.Flush()

	total, pageApplied, limitApplied := r.Pagination()
	fmt.Printf("\n%d students total (page %d, %d per page)\n", total, pageApplied, limitApplied)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	id := fs.Int64("id", 0, "student id")
	fs.Parse(args) //nolint:errcheck

	student, err := a.client.GetStudent(ctx, *id)
	if err != nil {
		return err
	}
	printStudent(student)
	return nil
}

func studentFlags(fs *flag.FlagSet) map[string]*string {
	return map[string]*string{
		"name":    fs.String("name", "", "student name"),
		"parents": fs.String("parents", "", "parents name"),
		"roll":    fs.String("roll", "", "roll number"),
		"class":   fs.String("class", "", "class"),
		"section": fs.String("section", "", "section"),
		"joined":  fs.String("joined", "", "school joined date (YYYY-MM-DD)"),
		"dob":     fs.String("dob", "", "date of birth (YYYY-MM-DD)"),
		"phone":   fs.String("phone", "", "phone number"),
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	fields := studentFlags(fs)
	fs.Parse(args) //nolint:errcheck

	student, err := a.client.CreateStudent(ctx, models.CreateStudentInput{
		StudentName:      *fields["name"],
		ParentsName:      *fields["parents"],
		RollNumber:       *fields["roll"],
		Class:            *fields["class"],
		Section:          *fields["section"],
		SchoolJoinedDate: *fields["joined"],
		DateOfBirth:      *fields["dob"],
		PhoneNumber:      *fields["phone"],
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered student %d (%s)\n", student.ID, student.RollNumber)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.Int64("id", 0, "student id")
	fields := studentFlags(fs)
	fs.Parse(args) //nolint:errcheck

	// Start from the current record so unset flags keep their values.
	current, err := a.client.GetStudent(ctx, *id)
	if err != nil {
		return err
	}
	input := models.UpdateStudentInput{
		ID:               current.ID,
		StudentName:      override(*fields["name"], current.StudentName),
		ParentsName:      override(*fields["parents"], current.ParentsName),
		RollNumber:       override(*fields["roll"], current.RollNumber),
		Class:            override(*fields["class"], current.Class),
		Section:          override(*fields["section"], current.Section),
		SchoolJoinedDate: override(*fields["joined"], current.SchoolJoinedDate),
		DateOfBirth:      override(*fields["dob"], current.DateOfBirth),
		PhoneNumber:      override(*fields["phone"], current.PhoneNumber),
	}

	student, err := a.client.UpdateStudent(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("updated student %d\n", student.ID)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "student id")
	fs.Parse(args) //nolint:errcheck

	if err := a.client.DeleteStudent(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("deleted student %d\n", *id)
	return nil
}

func (a *app) fees(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fees", flag.ExitOnError)
	fs.Parse(args) //nolint:errcheck

	agg := feeview.New(a.client, a.logger, a.cfg.API.FeeFetchers)
	view, err := agg.Build(ctx)
	if err != nil {
		return err
	}

	for _, branch := range view.Branches() {
		fmt.Printf("%s - %s (Class: %s)\n", branch.Student.StudentName, branch.Student.RollNumber, branch.Student.Class)
		switch branch.State {
		case feeview.Failed:
			fmt.Printf("  fees unavailable: %s\n", branch.Reason)
			continue
		case feeview.NotLoaded:
			fmt.Println("  fees not loaded")
			continue
		}
		if len(branch.Fees) == 0 {
			fmt.Println("  no fees found")
			continue
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  TYPE\tYEAR\tTOTAL\tPAID\tREMAINING\tLAST PAYMENT")
		for _, fee := range branch.Fees {
			last := "no payments"
			if len(fee.Payments) > 0 {
				last = export.ShortDate(fee.Payments[0].PaymentDate)
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				fee.FeeTypeName, fee.AcademicYear,
				export.Currency(fee.TotalAmount), export.Currency(fee.TotalPaid),
				export.Currency(fee.RemainingAmount), last)
		}
		w.Flush()
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "csv", "output format: csv or pdf")
	out := fs.String("out", "", "output file (defaults to fee-statement.<format>)")
	fs.Parse(args) //nolint:errcheck

	agg := feeview.New(a.client, a.logger, a.cfg.API.FeeFetchers)
	view, err := agg.Build(ctx)
	if err != nil {
		return err
	}
	statement := export.FeeStatement(view.Branches())

	var rendered []byte
	switch *format {
	case "csv":
		rendered, err = statement.CSV()
	case "pdf":
		rendered, err = statement.PDF("Fee Statement")
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = "fee-statement." + *format
	}
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("wrote %s (%d rows)\n", path, len(statement.Rows))
	return nil
}

func printStudent(s *models.Student) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%d\n", s.ID)
	fmt.Fprintf(w, "Name\t%s\n", s.StudentName)
	fmt.Fprintf(w, "Parents\t%s\n", s.ParentsName)
	fmt.Fprintf(w, "Roll Number\t%s\n", s.RollNumber)
	fmt.Fprintf(w, "Class\t%s\n", s.Class)
	fmt.Fprintf(w, "Section\t%s\n", s.Section)
	fmt.Fprintf(w, "Joined\t%s\n", s.SchoolJoinedDate)
	fmt.Fprintf(w, "Date of Birth\t%s\n", s.DateOfBirth)
	fmt.Fprintf(w, "Phone\t%s\n", s.PhoneNumber)
	w.Flush()
}

func override(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// fatal prints a failure in terms a user can act on: connectivity problems
// and server rejections read differently.
func fatal(err error) {
	switch {
	case appErrors.IsTransport(err):
		fmt.Fprintf(os.Stderr, "connection problem: %v\n", err)
	case appErrors.IsNotFound(err):
		fmt.Fprintf(os.Stderr, "not found: %v\n", err)
	case appErrors.IsRejected(err):
		fmt.Fprintf(os.Stderr, "rejected: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}
