package chart

// indexHTML is the self-contained chart page. It polls /api/candles
// and draws candlesticks on a canvas, with replay controls shown when
// the server runs in replay mode.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Chart</title>
<style>
  body { margin: 0; background: #131722; color: #d1d4dc; font-family: monospace; }
  #bar { padding: 8px 12px; display: flex; gap: 12px; align-items: center; }
  #controls button { background: #2a2e39; color: #d1d4dc; border: 1px solid #434651; padding: 4px 10px; cursor: pointer; }
  #controls button:hover { background: #363a45; }
  canvas { display: block; width: 100vw; height: calc(100vh - 40px); }
</style>
</head>
<body>
<div id="bar">
  <span id="title">loading…</span>
  <span id="controls" style="display:none">
    <button onclick="ctl('play')">play</button>
    <button onclick="ctl('pause')">pause</button>
    <button onclick="speed(0.5)">0.5x</button>
    <button onclick="speed(2)">2x</button>
    <button onclick="speed(8)">8x</button>
    <button onclick="ctl('end')">end</button>
  </span>
  <span id="state"></span>
</div>
<canvas id="chart"></canvas>
<script>
let meta = {refresh_ms: 1000};

async function ctl(op) { await fetch('/api/replay/' + op, {method: 'POST'}); }
async function speed(x) {
  await fetch('/api/replay/speed', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({speed: x})
  });
}

function draw(candles, current) {
  const cv = document.getElementById('chart');
  cv.width = cv.clientWidth; cv.height = cv.clientHeight;
  const g = cv.getContext('2d');
  g.fillStyle = '#131722'; g.fillRect(0, 0, cv.width, cv.height);

  const all = current ? candles.concat([current]) : candles;
  const view = all.slice(-200);
  if (!view.length) return;

  let lo = Infinity, hi = -Infinity;
  for (const c of view) { lo = Math.min(lo, c.l); hi = Math.max(hi, c.h); }
  const pad = (hi - lo) * 0.05 || 1;
  lo -= pad; hi += pad;

  const w = cv.width / view.length;
  const y = p => cv.height * (1 - (p - lo) / (hi - lo));

  view.forEach((c, i) => {
    const x = i * w + w / 2;
    const up = c.c >= c.o;
    g.strokeStyle = g.fillStyle = up ? '#26a69a' : '#ef5350';
    g.beginPath(); g.moveTo(x, y(c.h)); g.lineTo(x, y(c.l)); g.stroke();
    const top = y(Math.max(c.o, c.c)), bot = y(Math.min(c.o, c.c));
    g.fillRect(x - w * 0.3, top, w * 0.6, Math.max(1, bot - top));
  });
}

async function tick() {
  try {
    const res = await fetch('/api/candles');
    const data = await res.json();
    draw(data.candles || [], data.current || null);
    if (meta.mode === 'replay') {
      const st = await (await fetch('/api/replay/state')).json();
      document.getElementById('state').textContent =
        'bar ' + st.index + '/' + st.total + (st.playing ? ' ▶ ' + st.speed + 'x' : ' ⏸');
    }
  } catch (e) { /* server restarting */ }
}

async function init() {
  meta = await (await fetch('/api/meta')).json();
  document.getElementById('title').textContent =
    meta.symbol + ' · ' + meta.timeframe + ' · ' + meta.mode;
  if (meta.mode === 'replay') {
    document.getElementById('controls').style.display = '';
  }
  setInterval(tick, meta.refresh_ms || 1000);
  tick();
}
init();
</script>
</body>
</html>
`
