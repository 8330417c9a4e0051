package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/entadmin/adminkit/apiclient"
	"github.com/entadmin/adminkit/auth"
	"github.com/entadmin/adminkit/enterprise"
	"github.com/entadmin/adminkit/logger"
	"github.com/entadmin/adminkit/password"
	"github.com/entadmin/adminkit/storage"
	"github.com/entadmin/adminkit/supabase"
	"github.com/entadmin/adminkit/user"
	"github.com/entadmin/adminkit/util"
	"github.com/entadmin/adminkit/validation"
	"github.com/entadmin/adminkit/version"

	_ "github.com/entadmin/adminkit/storage/local"
	_ "github.com/entadmin/adminkit/storage/s3"
	_ "github.com/entadmin/adminkit/storage/supabase"
)

// errFailedCheck marks a check that ran and failed; its output has already
// been printed.
var errFailedCheck = errors.New("check failed")

const commandTimeout = 2 * time.Minute

type cli struct {
	stdout, stderr      io.Writer
	configFile, envFile string
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) strength(args []string) error {
	fs := c.flags("strength")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one password")
	}

	pw := fs.Arg(0)
	res := password.Strength(pw)
	fmt.Fprintf(c.stdout, "score: %d/5 (%s)\n", res.Score, password.Label(res.Score))
	for _, f := range res.Feedback {
		fmt.Fprintf(c.stdout, "  - %s\n", f)
	}
	if problems := password.CheckPolicy(pw); len(problems) > 0 {
		fmt.Fprintln(c.stdout, "policy: not met")
		return errFailedCheck
	}
	fmt.Fprintln(c.stdout, "policy: met")
	return nil
}

func (c *cli) validateEmail(args []string) error {
	fs := c.flags("validate-email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one address")
	}

	if msg := validation.ValidateField(fs.Arg(0), validation.Required(""), validation.Email("")); msg != "" {
		fmt.Fprintln(c.stdout, msg)
		return errFailedCheck
	}
	fmt.Fprintln(c.stdout, "valid")
	return nil
}

func (c *cli) version(args []string) error {
	fs := c.flags("version")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	info := version.Get()
	if *asJSON {
		return json.NewEncoder(c.stdout).Encode(info)
	}
	fmt.Fprintln(c.stdout, "adminctl", info.String())
	return nil
}

// app holds the dependencies of the data commands.
type app struct {
	cfg *AppConfig
	api apiclient.Requester
}

func (c *cli) setup() (*app, error) {
	cfg, err := loadConfig(c.configFile, c.envFile)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, c.stderr)
	logger.SetGlobalLogger(log)
	logger.RegisterComponents(log, "enterprise", "user", "storage", "supabase")
	log.Debug("starting", logger.Fields("version", version.Get().Short(), "environment", cfg.Environment))

	var client *apiclient.Client
	if cfg.Supabase.URL != "" {
		project, err := supabase.New(cfg.Supabase, nil)
		if err != nil {
			return nil, err
		}
		if client, err = project.Rest(); err != nil {
			return nil, err
		}
	} else {
		if client, err = apiclient.New(cfg.API, apiclient.WithLogger(log)); err != nil {
			return nil, err
		}
	}

	if cfg.AccessToken != "" {
		if !auth.IsAuthenticated(cfg.AccessToken) {
			return nil, errors.New("access_token is expired or malformed")
		}
		client.SetAuthToken(cfg.AccessToken)
	}
	return &app{cfg: cfg, api: client}, nil
}

func (a *app) enterprises(opts ...enterprise.Option) *enterprise.Service {
	base := []enterprise.Option{
		enterprise.WithRetry(a.cfg.Retry),
		enterprise.WithMaxDocumentSize(a.cfg.Storage.MaxFileSize),
	}
	return enterprise.NewService(a.api, append(base, opts...)...)
}

func (c *cli) enterprises(args []string) error {
	fs := c.flags("enterprises")
	status := fs.String("status", "", "filter by status (draft, pending, approved, rejected, suspended)")
	search := fs.String("search", "", "filter by name")
	limit := fs.Int("limit", 50, "maximum rows")
	page := fs.Int("page", 1, "page number")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *status != "" && !enterprise.Status(*status).Valid() {
		return fmt.Errorf("unknown status %q", *status)
	}

	a, err := c.setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	list, err := a.enterprises().List(ctx, enterprise.Query{
		Status: enterprise.Status(*status), Search: *search, Limit: *limit, Page: *page,
	})
	if err != nil {
		return err
	}
	if *asJSON {
		return json.NewEncoder(c.stdout).Encode(list)
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSTATUS\tCREATED")
	for _, e := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Type, e.Status, e.CreatedAt.Format(time.DateOnly))
	}
	return tw.Flush()
}

func (c *cli) review(args []string) error {
	fs := c.flags("review")
	decision := fs.String("decision", "", "approved or rejected")
	comment := fs.String("comment", "", "review comment (required when rejecting)")
	reviewer := fs.String("reviewer", "", "reviewer user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one enterprise id")
	}

	a, err := c.setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	e, err := a.enterprises().Review(ctx, fs.Arg(0), enterprise.ReviewParams{
		Status: enterprise.Status(*decision), Comment: *comment, ReviewerID: *reviewer,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s %s\n", e.ID, e.Status)
	return nil
}

func (c *cli) uploadDocument(args []string) error {
	fs := c.flags("upload-document")
	id := fs.String("enterprise", "", "enterprise id")
	docType := fs.String("type", "", "document type, e.g. business_licence")
	maxSize := fs.String("max-size", "", "upload limit such as 5MB (default: storage.max_file_size)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *docType == "" || fs.NArg() != 1 {
		return errors.New("usage: upload-document -enterprise <id> -type <type> <file>")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	a, err := c.setup()
	if err != nil {
		return err
	}
	store, err := storage.New(a.cfg.Storage, nil)
	if err != nil {
		return err
	}
	limit := a.cfg.Storage.MaxFileSize
	if *maxSize != "" {
		if limit, err = util.ParseSize(*maxSize); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	contentType := mime.TypeByExtension(filepath.Ext(f.Name()))
	svc := a.enterprises(enterprise.WithStorage(store), enterprise.WithMaxDocumentSize(limit))
	doc, err := svc.UploadDocument(ctx, *id, enterprise.DocumentUpload{
		DocumentType: *docType,
		FileName:     filepath.Base(f.Name()),
		ContentType:  contentType,
		Size:         stat.Size(),
		Body:         f,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s %s (%s)\n", doc.ID, doc.FileURL, storage.FormatSize(doc.FileSize))
	return nil
}

func (c *cli) users(args []string) error {
	fs := c.flags("users")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := c.setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	list, err := user.NewService(a.api, user.WithRetry(a.cfg.Retry)).List(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return json.NewEncoder(c.stdout).Encode(list)
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, auth.FormatUserName(u.Info()), u.Email, auth.RoleDisplayName(u.Role))
	}
	return tw.Flush()
}
