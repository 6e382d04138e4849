package handlers

// previewPage embeds diagrams.net in an iframe and polls /api/state once a
// second, pushing browser-side edits back through POST /api/state.
const previewPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>MCP Draw.io - Real-time Preview</title>
    <style>
        body {
            margin: 0;
            padding: 0;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            overflow: hidden;
        }
        #container {
            width: 100vw;
            height: 100vh;
            display: flex;
            flex-direction: column;
        }
        #header {
            background: #2563eb;
            color: white;
            padding: 12px 20px;
            display: flex;
            align-items: center;
            justify-content: space-between;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        #header h1 {
            margin: 0;
            font-size: 18px;
            font-weight: 600;
        }
        #status {
            font-size: 12px;
            opacity: 0.9;
        }
        #iframe-container {
            flex: 1;
            position: relative;
        }
        iframe {
            width: 100%;
            height: 100%;
            border: none;
        }
    </style>
</head>
<body>
    <div id="container">
        <div id="header">
            <h1>MCP Draw.io - Real-time Preview</h1>
            <div id="status">Connected - Session: __SESSION_SHORT__...</div>
        </div>
        <div id="iframe-container">
            <iframe id="drawio" src="https://embed.diagrams.net/?embed=1&ui=kennedy&spin=1&proto=json&saveAndExit=0"></iframe>
        </div>
    </div>

    <script>
        const sessionId = '__SESSION__';
        let iframe;
        let lastXml = '';

        window.addEventListener('load', function() {
            iframe = document.getElementById('drawio');

            window.addEventListener('message', function(evt) {
                if (evt.data.length > 0) {
                    try {
                        const msg = JSON.parse(evt.data);
                        handleDrawioMessage(msg);
                    } catch(e) {
                        console.error('Error parsing message:', e);
                    }
                }
            });

            setInterval(pollState, 1000);
        });

        function handleDrawioMessage(msg) {
            if (msg.event === 'init') {
                pollState();
            } else if (msg.event === 'export') {
                if (msg.format === 'xml') {
                    saveState(msg.xml);
                }
            } else if (msg.event === 'save') {
                iframe.contentWindow.postMessage(JSON.stringify({
                    action: 'export',
                    format: 'xml'
                }), '*');
            }
        }

        async function pollState() {
            try {
                const response = await fetch('/api/state?session=' + sessionId);
                const data = await response.json();

                if (data.xml && data.xml !== lastXml) {
                    lastXml = data.xml;
                    iframe.contentWindow.postMessage(JSON.stringify({
                        action: 'load',
                        xml: data.xml,
                        autosave: 1
                    }), '*');
                }
            } catch(e) {
                console.error('Error polling state:', e);
            }
        }

        async function saveState(xml) {
            try {
                await fetch('/api/state', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({
                        session: sessionId,
                        xml: xml
                    })
                });
                lastXml = xml;
            } catch(e) {
                console.error('Error saving state:', e);
            }
        }
    </script>
</body>
</html>`
