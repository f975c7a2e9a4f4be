// Command bundlectl inspects, extracts and repacks FS asset bundles.
package main

func main() {
	execute()
}
