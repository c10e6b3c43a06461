package printing

const defaultCatalogTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Noto Sans", Arial, sans-serif; color: #222; margin: 0; }
  header { border-bottom: 3px solid #0b6e4f; padding-bottom: 8px; margin-bottom: 16px; }
  header h1 { margin: 0; font-size: 22px; color: #0b6e4f; }
  header p { margin: 2px 0; font-size: 11px; color: #555; }
  h2 { font-size: 16px; margin: 18px 0 8px; page-break-after: avoid; }
  .grid { display: flex; flex-wrap: wrap; gap: 10px; }
  .card { width: 31%; border: 1px solid #ddd; border-radius: 6px; padding: 8px; box-sizing: border-box; page-break-inside: avoid; }
  .card img { width: 100%; height: 140px; object-fit: contain; background: #f7f7f7; }
  .name { font-weight: 600; font-size: 12px; margin-top: 6px; }
  .meta { font-size: 10px; color: #666; }
  .price { font-size: 14px; font-weight: 700; color: #0b6e4f; margin-top: 4px; }
  footer { margin-top: 24px; font-size: 10px; color: #777; text-align: center; }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p>{{.StoreName}}{{if .ContactLine}} &middot; {{.ContactLine}}{{end}}</p>
  <p>Prices valid as of {{formatDate .GeneratedAt}}. GST extra as applicable.</p>
</header>
{{range .Sections}}
<h2>{{title .Category}} <span class="meta">({{formatInt (len .Items)}} products)</span></h2>
<div class="grid">
  {{range .Items}}
  <div class="card">
    {{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Name}}">{{end}}
    <div class="name">{{truncate .Name 60}}</div>
    <div class="meta">SKU {{.SKU}}{{if .Manufacturer}} &middot; {{.Manufacturer}}{{end}}</div>
    <div class="price">{{formatINR .DisplayPrice}} <span class="meta">/ unit</span></div>
    <div class="meta">MOQ {{.MOQ}} &middot; GST {{.GSTRate}}%</div>
  </div>
  {{end}}
</div>
{{else}}
<p>No products available.</p>
{{end}}
<footer>Order on {{.StoreName}}. Wholesale prices for registered retailers only.</footer>
</body>
</html>
`
