package server

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/state"
)

// builtinThemes back the dark/light names that are always selectable.
// Config themes with the same name override individual variables.
var builtinThemes = map[string]map[string]string{
	"dark": {
		"bg": "#0f172a", "surface": "#1e293b", "border": "#334155",
		"text": "#e2e8f0", "text-dim": "#94a3b8", "text-muted": "#64748b",
		"accent": "#3b82f6", "green": "#22c55e", "yellow": "#eab308", "red": "#ef4444",
	},
	"light": {
		"bg": "#f1f5f9", "surface": "#ffffff", "border": "#cbd5e1",
		"text": "#0f172a", "text-dim": "#475569", "text-muted": "#64748b",
		"accent": "#2563eb", "green": "#16a34a", "yellow": "#ca8a04", "red": "#dc2626",
	},
}

// renderPage assembles the full dashboard document around the rendered
// component grid.
func renderPage(cfg *config.Config, st *state.Store, body string) string {
	theme := st.Theme(cfg.Dashboard.Theme)
	return fmt.Sprintf(pageHTML,
		html.EscapeString(cfg.Dashboard.Title),
		themeCSS(cfg),
		html.EscapeString(theme),
		html.EscapeString(cfg.Dashboard.Title),
		body,
	)
}

// themeCSS emits one CSS variable block per theme, built-ins first so
// config themes can override them.
func themeCSS(cfg *config.Config) string {
	var b strings.Builder
	names := cfg.ThemeNames()
	for _, name := range names {
		vars := make(map[string]string)
		for k, v := range builtinThemes[name] {
			vars[k] = v
		}
		if vars["bg"] == "" {
			// Unknown custom theme: start from dark.
			for k, v := range builtinThemes["dark"] {
				vars[k] = v
			}
		}
		for k, v := range cfg.Themes[name] {
			vars[k] = v
		}

		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(fmt.Sprintf("[data-theme=%q]{", name))
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("--%s:%s;", k, vars[k]))
		}
		b.WriteString("}\n")
	}
	return b.String()
}

const pageHTML = `<!DOCTYPE html>
<html lang="en" data-theme="%[3]s">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%[1]s</title>
<style>
%[2]s
*{margin:0;padding:0;box-sizing:border-box}
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background:var(--bg);color:var(--text);min-height:100vh}
.hdr{background:var(--surface);border-bottom:1px solid var(--border);padding:10px 20px;display:flex;align-items:center;gap:10px;position:sticky;top:0;z-index:100}
.hdr h1{font-size:16px;font-weight:700;flex:1}
.hdr .dot{width:8px;height:8px;border-radius:50%%;background:var(--green)}
.hdr .dot.offline{background:var(--red)}
main{padding:16px 20px;max-width:1400px;margin:0 auto}
.dashboard-grid{display:grid}
.dashboard-group{background:var(--surface);border:1px solid var(--border);border-radius:8px;overflow:hidden}
.group-header{display:flex;align-items:center;justify-content:space-between;padding:10px 14px;cursor:pointer;user-select:none}
.group-header h2{font-size:13px;font-weight:600;color:var(--text-dim)}
.collapse-toggle{color:var(--text-muted);transition:transform .2s}
.dashboard-group.collapsed .collapse-toggle{transform:rotate(-90deg)}
.dashboard-group.collapsed .group-content{display:none}
.group-content{padding:10px 14px;display:flex;flex-direction:column;gap:8px}
.group-grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(180px,1fr));gap:8px}
.dashboard-widget{background:var(--surface);border:1px solid var(--border);border-radius:8px;padding:12px;min-height:60px}
.dashboard-link{display:flex;align-items:center;gap:8px;padding:8px 12px;background:var(--surface);border:1px solid var(--border);border-radius:8px;color:var(--text);text-decoration:none;font-size:13px}
.dashboard-link:hover{border-color:var(--accent)}
.dashboard-link.compact{padding:4px 10px;font-size:12px}
.link-desc{color:var(--text-muted);font-size:11px;margin-left:auto}
.status-dot{width:8px;height:8px;border-radius:50%%;display:inline-block;flex-shrink:0}
.status-online{background:var(--green)}.status-offline{background:var(--red)}
.status-timeout{background:var(--yellow)}.status-checking{background:var(--text-muted);animation:pulse 1.5s infinite}
@keyframes pulse{0%%,100%%{opacity:1}50%%{opacity:.4}}
.loading{display:flex;flex-direction:column;align-items:center;gap:8px;padding:12px;color:var(--text-muted);font-size:12px}
.spinner{width:18px;height:18px;border:2px solid var(--border);border-top-color:var(--accent);border-radius:50%%;animation:spin .8s linear infinite}
@keyframes spin{to{transform:rotate(360deg)}}
.widget-error{padding:10px;border:1px solid var(--red);border-radius:6px;font-size:12px}
.widget-error small{color:var(--text-muted)}
.clock-widget{text-align:center}.clock-time{font-size:26px;font-weight:700;font-variant-numeric:tabular-nums}
.clock-date{font-size:12px;color:var(--text-dim)}
.weather-widget{font-size:12px}.weather-location{font-weight:600}.weather-main{display:flex;align-items:center;gap:8px}
.weather-temp{font-size:24px;font-weight:700}.weather-icon{width:48px;height:48px}
.weather-desc{color:var(--text-dim)}.weather-details{display:flex;gap:10px;flex-wrap:wrap;color:var(--text-muted);margin-top:4px}
.radar-frame{width:100%%;height:260px;border:0;border-radius:6px}
.radar-location{font-size:12px;font-weight:600;margin-bottom:6px}
ul{list-style:none}
.preview-list li,.trilium-list li,.obsidian-list li,.todoist-list li{display:flex;justify-content:space-between;gap:8px;padding:4px 0;border-bottom:1px solid var(--border);font-size:12px}
.preview-list li:last-child,.trilium-list li:last-child,.obsidian-list li:last-child,.todoist-list li:last-child{border-bottom:0}
.preview-title,.trilium-title,.obsidian-title,.todoist-title,.status-title,.tailscale-title{font-size:12px;font-weight:600;color:var(--text-dim);margin-bottom:6px}
.preview-date,.trilium-date,.todoist-due{color:var(--text-muted);white-space:nowrap}
.preview-empty,.trilium-empty,.obsidian-empty,.status-summary-empty{color:var(--text-muted);font-size:12px}
a{color:var(--accent);text-decoration:none}a:hover{text-decoration:underline}
.status-list li,.tailscale-list li{display:flex;align-items:center;gap:8px;padding:4px 0;font-size:12px}
.status-latency,.tailscale-os,.tailscale-addr{color:var(--text-muted);margin-left:auto;font-size:11px}
.status-summary-widget{display:flex;align-items:center;gap:8px;font-size:12px}
.status-summary-counts{color:var(--text-muted);margin-left:auto}
.theme-switcher-widget{display:flex;align-items:center;gap:8px;font-size:12px}
.theme-switcher-select{background:var(--bg);color:var(--text);border:1px solid var(--border);border-radius:5px;padding:4px 8px;font-size:12px}
.image-widget img{max-width:100%%;border-radius:6px;display:block}
.motd-widget{font-size:13px;line-height:1.5}
.motd-widget .motd-title{font-weight:600;margin-bottom:4px}
.motd-widget code{background:var(--bg);padding:1px 5px;border-radius:3px;font-size:12px}
.tailscale-count{color:var(--text-muted);font-weight:400}
</style>
</head>
<body>
<header class="hdr"><span class="dot" id="conn-dot"></span><h1>%[4]s</h1></header>
<main>
%[5]s
</main>
<script>
(function(){
	var dot=document.getElementById('conn-dot');
	var pollTimer=null;

	function applyFragment(id,html){
		var el=document.getElementById('mount-'+id);
		if(el){el.innerHTML=html;}
	}

	function poll(){
		fetch('/api/fragments').then(function(r){return r.json();}).then(function(frags){
			for(var id in frags){applyFragment(id,frags[id]);}
		}).catch(function(){});
	}

	function connect(){
		var proto=location.protocol==='https:'?'wss://':'ws://';
		var ws=new WebSocket(proto+location.host+'/ws');
		ws.onopen=function(){
			dot.classList.remove('offline');
			if(pollTimer){clearInterval(pollTimer);pollTimer=null;}
		};
		ws.onmessage=function(ev){
			var msg=JSON.parse(ev.data);
			if(msg.type==='fragment'){applyFragment(msg.id,msg.html);}
			else if(msg.type==='reload'){location.reload();}
		};
		ws.onclose=function(){
			dot.classList.add('offline');
			if(!pollTimer){pollTimer=setInterval(poll,10000);}
			setTimeout(connect,3000);
		};
	}
	connect();

	document.querySelectorAll('.group-header[data-collapse-target]').forEach(function(hdr){
		hdr.addEventListener('click',function(){
			var id=hdr.getAttribute('data-collapse-target');
			var group=document.getElementById('group-'+id);
			var collapsed=group.classList.toggle('collapsed');
			fetch('/api/state/groups/'+encodeURIComponent(id),{
				method:'POST',headers:{'Content-Type':'application/json'},
				body:JSON.stringify({collapsed:collapsed})
			}).catch(function(){});
		});
	});

	document.addEventListener('change',function(ev){
		if(!ev.target.matches('[data-role=theme-select]'))return;
		var theme=ev.target.value;
		document.documentElement.setAttribute('data-theme',theme);
		fetch('/api/state/theme',{
			method:'POST',headers:{'Content-Type':'application/json'},
			body:JSON.stringify({theme:theme})
		}).catch(function(){});
	});
})();
</script>
</body>
</html>`
