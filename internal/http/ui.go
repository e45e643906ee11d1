package http

import nethttp "net/http"

func dashboardHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(dashboardHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Brain Image Library Inventory Report</title>
  <style>
    :root {
      --bil-blue: #0e5d8f;
      --bil-blue-2: #0971b2;
      --bg: #f7f7f7;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --line-soft: #eee;
      --head: #f0f0f0;
      --bad-bg: #f2dede;
      --bad-text: #a94442;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Open Sans", "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.42857143;
    }

    header {
      background: linear-gradient(to right, var(--bil-blue) 0, var(--bil-blue-2) 100%);
      border-bottom: 1px solid #0b4e79;
      box-shadow: 0 2px 5px rgba(0, 0, 0, 0.15);
    }

    .container {
      margin: 0 auto;
      padding: 0 15px;
      width: 100%;
      max-width: 1680px;
    }

    .header-inner {
      min-height: 70px;
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
    }

    .navbar-brand { color: #fff; font-size: 22px; font-weight: 300; }
    .navbar-brand strong { font-weight: 600; }
    .navbar-note { color: rgba(255, 255, 255, 0.88); font-size: 13px; text-align: right; }

    main { padding: 18px 0 32px; }

    .layout {
      display: grid;
      grid-template-columns: 300px 1fr;
      gap: 16px;
    }

    .body-box,
    .sidebar-box {
      background: var(--paper);
      border: 1px solid var(--line);
      box-shadow: 0 1px 2px rgba(0, 0, 0, 0.05);
      padding: 16px;
      margin-bottom: 16px;
    }

    h1 {
      margin: 0 0 12px;
      font-size: 30px;
      font-weight: 300;
      border-bottom: 1px solid var(--line-soft);
      padding-bottom: 8px;
      color: #444;
    }

    h2 {
      margin: 20px 0 10px;
      font-size: 22px;
      font-weight: 400;
      color: #444;
      border-bottom: 1px solid var(--line-soft);
      padding-bottom: 6px;
    }

    h3 { margin: 0; font-size: 16px; font-weight: 600; color: #444; }

    .error-banner {
      display: none;
      margin: 0 0 14px;
      padding: 10px 12px;
      color: var(--bad-text);
      background: var(--bad-bg);
      border: 1px solid #ebccd1;
    }

    .warning {
      margin: 10px 0;
      padding: 8px 12px;
      color: #8a6d3b;
      background: #fcf8e3;
      border: 1px solid #faebcc;
    }

    .panel-grid {
      display: grid;
      gap: 14px;
      grid-template-columns: repeat(auto-fill, minmax(420px, 1fr));
      margin-bottom: 14px;
    }

    .panel { border: 1px solid var(--line); background: var(--paper); }
    .panel-heading { padding: 10px 12px; border-bottom: 1px solid var(--line); background: var(--head); }
    .panel-body { padding: 10px 12px 12px; }

    .table-wrap { max-height: 360px; overflow: auto; }

    table { width: 100%; border-collapse: collapse; }

    th,
    td {
      padding: 6px 8px;
      vertical-align: top;
      border-top: 1px solid var(--line);
      text-align: left;
      font-size: 13px;
    }

    thead th {
      position: sticky;
      top: 0;
      border-bottom: 2px solid var(--line);
      border-top: 0;
      color: #555;
      font-size: 11px;
      text-transform: uppercase;
      letter-spacing: 0.5px;
      background: #fafafa;
    }

    tbody tr:nth-child(odd) td { background: #f9f9f9; }

    .mono { font-family: Menlo, Monaco, Consolas, "Liberation Mono", monospace; word-break: break-all; }

    canvas {
      width: 100%;
      height: 260px;
      border: 1px solid var(--line);
      background: #fff;
    }

    .legend { margin: 8px 0 0; padding: 0; list-style: none; font-size: 12px; columns: 2; }
    .legend li { margin: 0 0 2px; }
    .swatch { display: inline-block; width: 10px; height: 10px; margin-right: 6px; vertical-align: middle; }

    .placeholder { color: var(--muted); font-style: italic; }
    .hint { margin-top: 8px; color: var(--muted); font-size: 12px; }

    select, input, button { font: inherit; padding: 4px 6px; }
    label { display: block; margin: 8px 0 4px; font-weight: 600; }

    .stats dt { font-weight: 600; }
    .stats dd { margin: 0 0 6px; }

    @media (max-width: 900px) {
      .layout { grid-template-columns: 1fr; }
    }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="navbar-brand"><strong>Brain Image Library</strong> Inventory Report</div>
      <div class="navbar-note" id="report-date"></div>
    </div>
  </header>
  <main class="container">
    <div class="error-banner" id="error-banner"></div>
    <div class="layout">
      <aside>
        <div class="sidebar-box">
          <h3>Collections</h3>
          <label for="collection-select">Select a Collection:</label>
          <select id="collection-select"></select>
          <h3 style="margin-top:14px">Datasets in Collection</h3>
          <label for="dataset-select">Select a Dataset (BILD ID):</label>
          <select id="dataset-select"></select>
        </div>
        <div class="sidebar-box" id="views-box" style="display:none">
          <h3>Saved Views</h3>
          <select id="views-select"><option value="">-</option></select>
          <label for="view-name">Save current selection as:</label>
          <input id="view-name" type="text" />
          <button id="view-save" type="button">Save</button>
        </div>
      </aside>
      <section>
        <div class="body-box">
          <h1>Brain Image Library Inventory Report</h1>
          <p>
            The <strong>Brain Image Library (BIL)</strong> is a national public resource that supports the storage,
            sharing, and analysis of large-scale brain imaging datasets. This report provides a snapshot of the current
            dataset inventory, highlighting key metadata including file counts, sizes, and organizational structure.
          </p>
          <p class="hint" id="source-note"></p>

          <h2>Preview: Sorted by Number of Files (Descending)</h2>
          <div class="table-wrap"><table id="preview-table"></table></div>

          <h2 id="collection-heading">Collection</h2>
          <div class="table-wrap"><table id="collection-table"></table></div>

          <h2>Collection Statistics</h2>
          <dl class="stats" id="stats"></dl>

          <h2>Dataset</h2>
          <div id="dataset-detail"><p class="placeholder">Select a dataset.</p></div>
        </div>
        <div class="panel-grid" id="panels"></div>
      </section>
    </div>
  </main>

  <script>
    const palette = ['#0e5d8f', '#cb4b16', '#859900', '#b58900', '#6c71c4', '#2aa198', '#d33682', '#268bd2', '#93a1a1', '#dc322f'];
    const state = { collection: '', bildid: '', panels: [] };

    function q(sel) { return document.querySelector(sel); }

    function esc(v) {
      return String(v == null ? '' : v)
        .replace(/&/g, '&amp;')
        .replace(/</g, '&lt;')
        .replace(/>/g, '&gt;')
        .replace(/"/g, '&quot;');
    }

    async function getJSON(url, opts) {
      const r = await fetch(url, opts);
      const body = await r.json().catch(() => ({}));
      if (!r.ok) throw new Error(body.error || (url + ' -> ' + r.status));
      return body;
    }

    function showError(msg) {
      const el = q('#error-banner');
      el.textContent = msg || '';
      el.style.display = msg ? 'block' : 'none';
    }

    function renderTable(el, columns, rows) {
      const head = '<thead><tr>' + columns.map((c) => '<th>' + esc(c) + '</th>').join('') + '</tr></thead>';
      const body = rows.map((r) => '<tr>' + r.map((v) => '<td>' + esc(v == null ? '' : v) + '</td>').join('') + '</tr>').join('');
      el.innerHTML = head + '<tbody>' + (body || '<tr><td colspan="' + columns.length + '">No rows.</td></tr>') + '</tbody>';
    }

    function previewRows(items) {
      return (items || []).map((r) => [r.collection, r.bildid, r.number_of_files, r.pretty_size]);
    }

    function fillSelect(el, values, selected) {
      el.innerHTML = values.map((v) => '<option' + (v === selected ? ' selected' : '') + ' value="' + esc(v) + '">' + esc(v) + '</option>').join('');
    }

    function setupCanvas(canvas) {
      const ratio = window.devicePixelRatio || 1;
      canvas.width = canvas.clientWidth * ratio;
      canvas.height = canvas.clientHeight * ratio;
      const c = canvas.getContext('2d');
      c.scale(ratio, ratio);
      return { c: c, w: canvas.clientWidth, h: canvas.clientHeight };
    }

    function drawPie(canvas, slices) {
      const g = setupCanvas(canvas);
      const total = slices.reduce((s, x) => s + x.value, 0) || 1;
      const cx = g.w / 2, cy = g.h / 2, radius = Math.min(g.w, g.h) / 2 - 12;
      let angle = -Math.PI / 2;
      slices.forEach((s, i) => {
        const next = angle + (s.value / total) * Math.PI * 2;
        g.c.beginPath();
        g.c.moveTo(cx, cy);
        g.c.arc(cx, cy, radius, angle, next);
        g.c.closePath();
        g.c.fillStyle = palette[i % palette.length];
        g.c.fill();
        angle = next;
      });
    }

    function drawBar(canvas, slices) {
      const g = setupCanvas(canvas);
      const pad = 24;
      const max = Math.max(1, ...slices.map((s) => s.value));
      const bw = (g.w - pad * 2) / Math.max(1, slices.length);
      g.c.strokeStyle = '#eee';
      for (let i = 0; i < 4; i++) {
        const y = pad + ((g.h - pad * 2) * i / 3);
        g.c.beginPath();
        g.c.moveTo(pad, y);
        g.c.lineTo(g.w - pad, y);
        g.c.stroke();
      }
      slices.forEach((s, i) => {
        const bh = (g.h - pad * 2) * (s.value / max);
        g.c.fillStyle = palette[i % palette.length];
        g.c.fillRect(pad + i * bw + 1, g.h - pad - bh, Math.max(1, bw - 2), bh);
      });
    }

    function drawTreemap(canvas, nodes) {
      const g = setupCanvas(canvas);
      const total = nodes.reduce((s, n) => s + n.value, 0) || 1;
      let x = 0;
      nodes.forEach((n, i) => {
        const w = g.w * (n.value / total);
        const color = palette[i % palette.length];
        const children = n.children && n.children.length ? n.children : [n];
        const sub = children.reduce((s, c) => s + c.value, 0) || 1;
        let y = 0;
        children.forEach((c, j) => {
          const h = g.h * (c.value / sub);
          g.c.fillStyle = color;
          g.c.globalAlpha = 1 - (j % 4) * 0.18;
          g.c.fillRect(x, y, w, h);
          g.c.globalAlpha = 1;
          g.c.strokeStyle = '#fff';
          g.c.strokeRect(x, y, w, h);
          if (w > 50 && h > 14) {
            g.c.fillStyle = '#fff';
            g.c.font = '11px sans-serif';
            g.c.fillText(String(c.label).slice(0, Math.floor(w / 7)), x + 4, y + 12);
          }
          y += h;
        });
        x += w;
      });
    }

    function legend(items, title) {
      const rows = items.slice(0, 20).map((s, i) =>
        '<li><span class="swatch" style="background:' + palette[i % palette.length] + '"></span>' +
        esc(s.label) + ' (' + esc(s.value) + ')</li>').join('');
      const more = items.length > 20 ? '<li>+' + (items.length - 20) + ' more</li>' : '';
      return (title ? '<div class="hint">' + esc(title) + '</div>' : '') + '<ul class="legend">' + rows + more + '</ul>';
    }

    function renderPanels(panels) {
      const grid = q('#panels');
      grid.innerHTML = '';
      panels.forEach((p) => {
        const box = document.createElement('div');
        box.className = 'panel';
        box.innerHTML = '<div class="panel-heading"><h3>' + esc(p.title) + '</h3></div><div class="panel-body"></div>';
        const body = box.querySelector('.panel-body');
        grid.appendChild(box);
        if (p.placeholder) {
          body.innerHTML = '<p class="placeholder">' + esc(p.placeholder) + '</p>';
          return;
        }
        const canvas = document.createElement('canvas');
        body.appendChild(canvas);
        if (p.kind === 'treemap') {
          drawTreemap(canvas, p.nodes || []);
          body.insertAdjacentHTML('beforeend', legend(p.nodes || [], p.legend_title));
        } else if (p.kind === 'bar') {
          drawBar(canvas, p.slices || []);
          body.insertAdjacentHTML('beforeend', legend(p.slices || [], p.legend_title));
        } else {
          drawPie(canvas, p.slices || []);
          body.insertAdjacentHTML('beforeend', legend(p.slices || [], p.legend_title));
        }
      });
    }

    function renderStats(s) {
      const versions = Object.keys(s.metadata_versions || {}).sort()
        .map((k) => esc(k) + ': ' + esc(s.metadata_versions[k])).join(', ') || '-';
      q('#stats').innerHTML =
        '<dt>Number of Datasets</dt><dd>' + esc(s.datasets) + '</dd>' +
        '<dt>Number of Files</dt><dd>' + esc(s.files) + '</dd>' +
        '<dt>Total Size</dt><dd>' + esc(s.pretty_size || '-') +
        (s.unknown_sizes ? ' (' + esc(s.unknown_sizes) + ' without size)' : '') + '</dd>' +
        '<dt>Metadata Version Frequency</dt><dd>' + versions + '</dd>';
    }

    async function loadDataset(bildid) {
      state.bildid = bildid;
      const box = q('#dataset-detail');
      if (!bildid) {
        box.innerHTML = '<p class="placeholder">No datasets in this collection.</p>';
        return;
      }
      box.innerHTML = '<p class="placeholder">Loading ' + esc(bildid) + '...</p>';
      try {
        const res = await getJSON('/api/v1/datasets/' + encodeURIComponent(bildid));
        const d = res.data || {};
        let html =
          '<p>Metadata version: ' + esc(d.version) + '</p>' +
          '<p>General modality: ' + esc(d.modality) + '</p>' +
          '<p>Technique: ' + esc(d.technique) + '</p>';
        if (d.manifest) {
          html += '<p>Manifest:</p><div class="table-wrap"><table id="manifest-table"></table></div>';
        } else {
          html += '<div class="warning">' + esc(d.warning) + '</div>';
        }
        box.innerHTML = html;
        if (d.manifest) renderTable(q('#manifest-table'), d.manifest.columns, d.manifest.rows);
      } catch (err) {
        box.innerHTML = '';
        showError(err.message);
      }
    }

    async function loadReport(collection) {
      showError('');
      let url = '/api/v1/report';
      const params = [];
      if (collection) params.push('collection=' + encodeURIComponent(collection));
      if (state.panels.length) params.push('panels=' + encodeURIComponent(state.panels.join(',')));
      if (params.length) url += '?' + params.join('&');
      try {
        const res = await getJSON(url);
        const meta = res.meta || {};
        const data = res.data || {};
        state.collection = meta.collection;
        q('#report-date').textContent = 'Report Date: ' + new Date(meta.fetched_at).toLocaleDateString(undefined, { year: 'numeric', month: 'long', day: 'numeric' });
        q('#source-note').textContent = 'Loading data from: ' + (meta.source || '-');
        renderTable(q('#preview-table'), data.columns, previewRows(data.preview));
        fillSelect(q('#collection-select'), data.collections || [], meta.collection);
        q('#collection-heading').textContent = 'You selected: ' + meta.collection;
        renderTable(q('#collection-table'), data.columns, previewRows(data.collection_rows));
        renderStats(data.stats || {});
        renderPanels(data.panels || []);
        const ids = data.datasets || [];
        const pick = ids.indexOf(state.bildid) >= 0 ? state.bildid : (ids[0] || '');
        fillSelect(q('#dataset-select'), ids, pick);
        await loadDataset(pick);
      } catch (err) {
        showError(err.message);
      }
    }

    async function loadViews() {
      try {
        const res = await getJSON('/api/v1/views');
        q('#views-box').style.display = 'block';
        const sel = q('#views-select');
        sel.innerHTML = '<option value="">-</option>' + (res.data || []).map((v) =>
          '<option value="' + esc(v.id) + '">' + esc(v.name) + '</option>').join('');
        sel.dataset.views = JSON.stringify(res.data || []);
      } catch (err) {
        q('#views-box').style.display = 'none';
      }
    }

    q('#collection-select').addEventListener('change', (e) => loadReport(e.target.value));
    q('#dataset-select').addEventListener('change', (e) => loadDataset(e.target.value));
    q('#views-select').addEventListener('change', (e) => {
      const all = JSON.parse(e.target.dataset.views || '[]');
      const v = all.find((x) => String(x.id) === e.target.value);
      if (!v) return;
      state.panels = v.panels || [];
      state.bildid = v.bildid || '';
      loadReport(v.collection);
    });
    q('#view-save').addEventListener('click', async () => {
      const name = q('#view-name').value.trim();
      if (!name) return;
      try {
        await getJSON('/api/v1/views', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ name: name, collection: state.collection, bildid: state.bildid, panels: state.panels })
        });
        q('#view-name').value = '';
        loadViews();
      } catch (err) {
        showError(err.message);
      }
    });

    loadReport('');
    loadViews();
  </script>
</body>
</html>
`
