// Package otsu splits a point set into two classes with Otsu's method on a
// single vector component.
package otsu
