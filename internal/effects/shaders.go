package effects

// shaders holds GL transition sources for the transitions that have one
var shaders = map[Type]string{
	Cube: `uniform float persp; // 0.7
uniform float unzoom; // 0.3
vec4 transition(vec2 uv) {
  float uz = unzoom * 2.0 * (0.5 - distance(0.5, progress));
  vec2 p = -uz * 0.5 + (1.0 + uz) * uv;
  return mix(getFromColor(p), getToColor(p), step(0.5, progress));
}
`,
	Pixelate: `uniform ivec2 squaresMin; // ivec2(20, 20)
uniform int steps; // 50
vec4 transition(vec2 uv) {
  float d = min(progress, 1.0 - progress);
  float dist = steps > 0 ? ceil(d * float(steps)) / float(steps) : d;
  vec2 sq = vec2(squaresMin) + dist * vec2(squaresMin);
  vec2 p = dist > 0.0 ? (floor(uv * sq) + 0.5) / sq : uv;
  return mix(getFromColor(p), getToColor(p), progress);
}
`,
	Morph: `uniform float strength; // 0.1
vec4 transition(vec2 uv) {
  vec4 ca = getFromColor(uv);
  vec4 cb = getToColor(uv);
  vec2 oa = (ca.rg - 0.5) * 2.0 * vec2(1.0, -1.0);
  vec2 ob = (cb.rg - 0.5) * 2.0 * vec2(1.0, -1.0);
  vec2 disp = mix(oa, ob, 0.5) * strength * (1.0 - step(1.0, progress));
  return mix(getFromColor(uv + progress * disp), getToColor(uv - (1.0 - progress) * disp), progress);
}
`,
}
