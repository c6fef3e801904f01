package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"badge-studio/app"
	"badge-studio/compositor"
	"badge-studio/config"
	"badge-studio/core"
	"badge-studio/gallery"
	"badge-studio/galleryview"
	"badge-studio/photo"
	"badge-studio/share"
	"badge-studio/stores"

	"github.com/sirupsen/logrus"
)

// previewWidth is the on-screen width the badge is laid out at before export.
const previewWidth = 400

type makeOptions struct {
	photo       string
	firstName   string
	lastName    string
	outDir      string
	zoom        float64
	offsetX     float64
	offsetY     float64
	square      bool
	galleryHTML string
}

func parseMakeFlags(args []string, output io.Writer) (makeOptions, error) {
	var opts makeOptions
	fs := flag.NewFlagSet("make", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.photo, "photo", "", "Path to the photo (JPEG, PNG, GIF or WebP).")
	fs.StringVar(&opts.firstName, "first", "", "First name printed on the badge.")
	fs.StringVar(&opts.lastName, "last", "", "Last name printed on the badge.")
	fs.StringVar(&opts.outDir, "out", ".", "Directory the badge is written to.")
	fs.Float64Var(&opts.zoom, "zoom", 1, "Photo zoom.")
	fs.Float64Var(&opts.offsetX, "x", 0, "Horizontal photo offset in preview pixels.")
	fs.Float64Var(&opts.offsetY, "y", 0, "Vertical photo offset in preview pixels.")
	fs.BoolVar(&opts.square, "square", false, "Use a square photo frame instead of a circle.")
	fs.StringVar(&opts.galleryHTML, "gallery-html", "", "Also write the gallery page to this file.")
	if err := fs.Parse(args); err != nil {
		return makeOptions{}, err
	}
	if opts.photo == "" {
		return makeOptions{}, errors.New("-photo is required")
	}
	return opts, nil
}

// cliNotifier prints notices for the terminal user.
type cliNotifier struct {
	w io.Writer
}

func (n cliNotifier) Alert(message string) { fmt.Fprintln(n.w, "Erreur :", message) }
func (n cliNotifier) Warn(message string)  { fmt.Fprintln(n.w, "Attention :", message) }

// runMake produces one badge from the command line: select the photo, submit the form,
// apply the requested transform and export.
func runMake(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	opts, err := parseMakeFlags(args, out)
	if err != nil {
		return err
	}

	var tmpl image.Image
	if cfg.TemplatePath != "" {
		if tmpl, err = compositor.LoadTemplate(cfg.TemplatePath); err != nil {
			return err
		}
	}

	layout := compositor.DefaultLayout(previewWidth)
	layout.QRText = cfg.CampaignURL
	if opts.square {
		layout.Shape = compositor.Square
	}

	kv := stores.WithQuota(stores.GetStore(cfg), cfg.LocalQuotaBytes)
	store, err := gallery.Open(ctx, cfg.GalleryEndpoint, kv, nil)
	if err != nil {
		return err
	}

	notifier := cliNotifier{w: out}
	session := app.NewSession(app.Options{
		Compositor: compositor.New(tmpl),
		Surface:    compositor.StaticSurface(layout),
		Publisher:  store,
		Notifier:   notifier,
		PageURL:    cfg.CampaignURL,
	})

	f, err := photo.ReadFile(opts.photo)
	if err != nil {
		return err
	}
	if err := session.SelectPhoto(ctx, f); err != nil {
		return err
	}
	if _, err := session.Submit(ctx, opts.firstName, opts.lastName); err != nil {
		return err
	}

	session.Engine().SetState(core.TransformState{Scale: opts.zoom, OffsetX: opts.offsetX, OffsetY: opts.offsetY})
	name, artifact, err := session.Export(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(opts.outDir, name)
	if err := os.WriteFile(path, artifact.PNG, 0644); err != nil {
		return fmt.Errorf("failed to write badge: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"path":    path,
		"bytes":   len(artifact.PNG),
		"gallery": store.Mode().String(),
	}).Info("Badge written")

	caption := share.Caption(share.WhatsApp, opts.firstName, opts.lastName)
	fmt.Fprintln(out, path)
	fmt.Fprintln(out, share.URL(share.WhatsApp, caption, cfg.CampaignURL))

	if opts.galleryHTML != "" {
		return writeGallery(ctx, store, opts.galleryHTML)
	}
	return nil
}

func writeGallery(ctx context.Context, store *gallery.Store, path string) error {
	view := galleryview.New(store, nil)
	if err := view.Refresh(ctx); err != nil {
		return err
	}
	view.OpenGrid()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := view.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
