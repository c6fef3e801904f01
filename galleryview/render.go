package galleryview

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"badge-studio/core"
)

type item struct {
	ID        string
	Name      string
	Date      string
	Thumbnail template.URL
	FullImage template.URL
	CanDelete bool
}

type page struct {
	Preview  []item
	Grid     []item
	Total    int
	GridOpen bool
	Modal    *item

	DeletePrompt string
}

var pageTemplate = template.Must(template.New("gallery").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Galerie des badges</title>
<style>
body{font-family:sans-serif;margin:0;background:#f5f5f5;color:#0d3316}
h1,h2{text-align:center;color:#1a5f2a}
.strip,.grid{display:flex;flex-wrap:wrap;gap:12px;justify-content:center;padding:12px}
.item{width:150px;text-align:center}
.item img{width:150px;height:150px;object-fit:cover;border-radius:8px}
.overlay,.modal{position:fixed;inset:0;background:rgba(0,0,0,.8);overflow:auto}
.modal .content{background:#fff;max-width:640px;margin:40px auto;padding:16px;border-radius:8px;text-align:center}
.modal img{max-width:100%}
.empty{text-align:center;color:#666}
</style>
</head>
<body>
<h1>Galerie des badges</h1>
{{if .Preview}}
<section class="strip" id="gallery-preview">
{{range .Preview}}{{template "item" .}}{{end}}
</section>
{{if gt .Total (len .Preview)}}<p class="empty"><a href="?grid=1">Voir tous les badges ({{.Total}})</a></p>{{end}}
{{else}}
<p class="empty">Aucun badge pour le moment. Soyez le premier !</p>
{{end}}
{{if .GridOpen}}
<section class="overlay" id="gallery-grid">
<h2>Tous les badges</h2>
<div class="grid">{{range .Grid}}{{template "item" .}}{{end}}</div>
</section>
{{end}}
{{with .Modal}}
<div class="modal" id="badge-modal" data-id="{{.ID}}">
<div class="content">
<a class="close" href="?">&times;</a>
<img src="{{.FullImage}}" alt="Badge de {{.Name}}">
<h2>{{.Name}}</h2>
{{if .Date}}<p>{{.Date}}</p>{{end}}
<a href="{{.FullImage}}" download>Télécharger</a>
{{if .CanDelete}}<button type="button" class="delete" data-id="{{.ID}}" data-confirm="{{$.DeletePrompt}}">Supprimer</button>{{end}}
</div>
</div>
{{end}}
</body>
</html>
{{define "item"}}<figure class="item" data-id="{{.ID}}">
<a href="?badge={{.ID}}"><img src="{{.Thumbnail}}" alt="Badge de {{.Name}}" loading="lazy"></a>
<figcaption>{{.Name}}</figcaption>
</figure>{{end}}`))

// Render writes the gallery as an HTML page.
func (v *View) Render(w io.Writer) error {
	p := page{
		Total:        len(v.entries),
		GridOpen:     v.gridOpen,
		DeletePrompt: deletePrompt,
	}
	for _, e := range v.Preview() {
		p.Preview = append(p.Preview, v.item(e))
	}
	if v.gridOpen {
		for _, e := range v.entries {
			p.Grid = append(p.Grid, v.item(e))
		}
	}
	if v.modal != nil {
		it := v.item(v.modal.Entry)
		it.CanDelete = v.modal.CanDelete
		p.Modal = &it
	}

	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render gallery page: %w", err)
	}
	return nil
}

func (v *View) item(e core.GalleryEntry) item {
	return item{
		ID:        e.ID,
		Name:      e.DisplayName(),
		Date:      FormatDate(e.CreatedAt, v.location),
		Thumbnail: imageURL(e.Thumbnail),
		FullImage: imageURL(e.FullImage),
		CanDelete: v.CanDelete() && e.IsLocal,
	}
}

// imageURL admits image data URLs, http(s) URLs and same-origin paths. Anything
// else is dropped.
func imageURL(ref string) template.URL {
	switch {
	case strings.HasPrefix(ref, "data:image/"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, "http://"),
		strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//"):
		return template.URL(ref)
	}
	return ""
}
