package sandbox

import (
	"encoding/json"
	"strings"
)

// harnessResult is the contract between the JS harness and the host. The
// harness writes it to a result file rather than stdout so student prints
// cannot corrupt it.
type harnessResult struct {
	Ok    bool   `json:"ok"`
	Value string `json:"value"`
	Error string `json:"error"`
}

// The harness evaluates the submission once, locates the callable it defines
// (module.exports, the value the code evaluates to, or the last function
// declared at top level), parses the input as a comma-separated argument
// list, invokes the callable and records the rendered return value. Host
// access is stripped before the submission runs; only clocks and randomness
// stay visible. String results render unquoted, everything else as JSON.
const harnessTemplate = `'use strict';
var __fs = require('fs');
var __exit = process.exit.bind(process);
var __resultPath = process.argv[2];
var __code = @CODE@;
var __input = @INPUT@;

function __finish(res) {
  try { __fs.writeFileSync(__resultPath, JSON.stringify(res)); } catch (e) {}
  __exit(0);
}

function __render(v) {
  if (typeof v === 'string') return v;
  if (v === undefined) return 'undefined';
  try {
    var s = JSON.stringify(v);
    return s === undefined ? String(v) : s;
  } catch (e) {
    return String(v);
  }
}

process.env = {};
try { globalThis.require = undefined; } catch (e) {}
try { globalThis.process = undefined; } catch (e) {}

// Indirect eval runs in global scope, where the CommonJS wrapper locals are
// not visible; give submissions a module/exports shim so the usual
// module.exports = fn pattern keeps working.
var __module = { exports: {} };
globalThis.module = __module;
globalThis.exports = __module.exports;

var __names = Object.getOwnPropertyNames(globalThis);
var __known = {};
for (var __i = 0; __i < __names.length; __i++) { __known[__names[__i]] = true; }

var __ret;
try {
  __ret = (0, eval)(__code);
} catch (e) {
  __finish({ ok: false, error: String(e) });
}

var __fn = null;
if (typeof __module.exports === 'function') {
  __fn = __module.exports;
}
if (__fn === null && typeof __ret === 'function') {
  __fn = __ret;
}
if (__fn === null) {
  var __after = Object.getOwnPropertyNames(globalThis);
  for (var __j = 0; __j < __after.length; __j++) {
    var __name = __after[__j];
    if (!__known[__name] && typeof globalThis[__name] === 'function') {
      __fn = globalThis[__name];
    }
  }
}

// const/let at the top level of an indirect eval create global lexical
// bindings, not globalThis properties, so the scan above misses
// const add = (a, b) => a + b. A follow-up indirect eval sees the global
// lexical environment; probe each declared name and keep the last callable.
if (__fn === null) {
  var __decl = /(?:^|[^\w$.])(?:const|let)\s+([A-Za-z_$][\w$]*)\s*=/g;
  var __match;
  while ((__match = __decl.exec(__code)) !== null) {
    try {
      var __cand = (0, eval)(__match[1]);
      if (typeof __cand === 'function') {
        __fn = __cand;
      }
    } catch (e) {}
  }
}

if (__fn === null) {
  if (__ret !== undefined) {
    __finish({ ok: true, value: __render(__ret) });
  }
  __finish({ ok: false, error: 'no callable found in submission' });
}

var __args = [];
if (__input.trim() !== '') {
  try {
    __args = (0, eval)('[' + __input + '\n]');
  } catch (e) {
    __args = [__input];
  }
}

try {
  __finish({ ok: true, value: __render(__fn.apply(null, __args)) });
} catch (e) {
  __finish({ ok: false, error: String(e) });
}
`

// renderHarness embeds the submission and the test case input into the
// harness as JSON string literals.
func renderHarness(source, input string) string {
	codeJSON, _ := json.Marshal(source)
	inputJSON, _ := json.Marshal(input)

	r := strings.NewReplacer(
		"@CODE@", string(codeJSON),
		"@INPUT@", string(inputJSON),
	)
	return r.Replace(harnessTemplate)
}
