package completion

// Instructions is appended to every transcript. The example has to stay
// in the grammar procedure.Parse accepts or the model will copy a shape
// that is silently dropped.
const Instructions = `

Turn the informal audio transcript above into a structured engineering procedure, with Section Names, Steps and Step Notes. An example output is below (it MUST match this format to be parsed correctly):

Section 1: Preparing Materials
Step 1: Get bread, butter and a butter knife

Section 2: Making toast
Step 2: Put bread in the toaster slots
Step 3: Press down toaster lever
Step 3 Note: Toast should take approximately 1-2 minutes to cook.
Step 4: Once toasting completes, pull toast riser to elevate toast.
Step 5: Use your hands to remove the toast.
Step 5 Note: Toast may be hot.

Section 3: Buttering the toast
Step 6: Scrape some butter from the tub.
Step 7: Spread it evenly across the toast.
Step 7 Note: Spread butter to the edges.
`

func BuildPrompt(transcript string) string {
	return transcript + Instructions
}
