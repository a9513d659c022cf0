package server

import "regexp"

// helperBundle is inserted into every HTML document served from a game directory. It hides
// scrollbars, keeps games working when localStorage is blocked in the iframe, suppresses
// the context menu and forwards the OSD hotkeys to the launcher.
const helperBundle = `<style data-launcher-helper>html,body{margin:0;padding:0;overflow:hidden;background:#000}` +
	`::-webkit-scrollbar{display:none}html{scrollbar-width:none}</style>` +
	`<script data-launcher-helper>(function(){` +
	`try{var k="__launcher_storage_check__";window.localStorage.setItem(k,k);window.localStorage.removeItem(k);}` +
	`catch(e){var m={};var s={getItem:function(x){return Object.prototype.hasOwnProperty.call(m,x)?m[x]:null},` +
	`setItem:function(x,v){m[x]=String(v)},removeItem:function(x){delete m[x]},clear:function(){m={}},` +
	`key:function(i){return Object.keys(m)[i]||null},get length(){return Object.keys(m).length}};` +
	`try{Object.defineProperty(window,"localStorage",{configurable:true,value:s});}catch(e2){}}` +
	`document.addEventListener("contextmenu",function(e){e.preventDefault();});` +
	`window.addEventListener("keydown",function(e){` +
	`var osd=e.key==="` + "`" + `"||e.key==="~"||e.code==="Backquote"||e.keyCode===192;` +
	`if(!osd&&e.key!=="Escape")return;` +
	`try{window.parent.postMessage({type:"launcher:osd",key:osd?"` + "`" + `":"Escape"},"*");}catch(err){}` +
	`if(osd){e.preventDefault();e.stopPropagation();}},true);` +
	`})();</script>`

var (
	headOpenRe    = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	doctypeOpenRe = regexp.MustCompile(`(?i)<!doctype[^>]*>`)
	htmlOpenRe    = regexp.MustCompile(`(?i)<html(\s[^>]*)?>`)
)

// injectHelpers places the helper bundle right after the opening <head> tag. Without a
// head it goes after whichever of <!doctype> and <html> ends last; without either it is
// prepended.
func injectHelpers(doc []byte) []byte {
	at := -1
	if loc := headOpenRe.FindIndex(doc); loc != nil {
		at = loc[1]
	} else {
		if loc := doctypeOpenRe.FindIndex(doc); loc != nil {
			at = loc[1]
		}
		if loc := htmlOpenRe.FindIndex(doc); loc != nil && loc[1] > at {
			at = loc[1]
		}
	}
	if at < 0 {
		at = 0
	}
	out := make([]byte, 0, len(doc)+len(helperBundle))
	out = append(out, doc[:at]...)
	out = append(out, helperBundle...)
	return append(out, doc[at:]...)
}
