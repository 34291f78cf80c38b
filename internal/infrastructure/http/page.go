package http

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>docqa</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; color: #222; }
        header h1 { margin-bottom: 0.2rem; }
        .subtitle { color: #666; margin-top: 0; }
        form { display: flex; gap: 0.5rem; margin: 0.75rem 0; }
        input[type=text], input[type=password] { flex: 1; padding: 0.5rem; }
        #messages { border: 1px solid #ddd; border-radius: 6px; padding: 0.75rem; min-height: 12rem; max-height: 28rem; overflow-y: auto; }
        .message { margin: 0.5rem 0; white-space: pre-wrap; }
        .user::before { content: "User: "; font-weight: bold; }
        .assistant::before { content: "Assistant: "; font-weight: bold; }
        .citations { font-size: 0.9rem; color: #444; border-left: 3px solid #ccc; padding-left: 0.5rem; }
        .error { color: #b00020; }
        #status { color: #555; min-height: 1.2rem; }
    </style>
</head>
<body>
    <header>
        <h1>docqa</h1>
        <p class="subtitle">Ask questions about a document, with page citations</p>
    </header>

    <form id="key-form" onsubmit="setKey(event)">
        <input type="password" id="key-input" placeholder="Provider API key" autocomplete="off">
        <button type="submit">Save key</button>
    </form>

    <form id="upload-form" onsubmit="upload(event)">
        <input type="file" id="file-input" accept=".pdf,.docx,.html,.htm,.txt,.rtf">
        <button type="submit">Upload</button>
    </form>
    <div id="status"></div>

    <div id="messages"></div>

    <form id="query-form" onsubmit="sendQuery(event)">
        <input type="text" id="query-input" placeholder="Ask about the document..." autocomplete="off" required>
        <button type="submit" id="send-btn">Send</button>
        <button type="button" onclick="clearHistory()">Clear history</button>
    </form>

    <script>
        const statusEl = document.getElementById('status');
        const messages = document.getElementById('messages');

        function showStatus(text, isError) {
            statusEl.textContent = text;
            statusEl.className = isError ? 'error' : '';
        }

        async function readError(res) {
            try {
                const body = await res.json();
                return body.error ? body.error.message : res.statusText;
            } catch (e) {
                return res.statusText;
            }
        }

        async function setKey(e) {
            e.preventDefault();
            const key = document.getElementById('key-input').value.trim();
            const res = await fetch('/api/session/key', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({api_key: key})
            });
            showStatus(res.ok ? 'Key saved for this session.' : await readError(res), !res.ok);
        }

        async function upload(e) {
            e.preventDefault();
            const input = document.getElementById('file-input');
            if (!input.files.length) return;
            const form = new FormData();
            form.append('file', input.files[0]);
            showStatus('Indexing ' + input.files[0].name + '...');
            const res = await fetch('/api/documents', {method: 'POST', body: form});
            if (!res.ok) {
                showStatus(await readError(res), true);
                return;
            }
            const doc = await res.json();
            showStatus('Loaded ' + doc.name + ' (' + doc.pages + ' pages, ' + doc.chunks + ' chunks).');
        }

        function addMessage(role, text) {
            const el = document.createElement('div');
            el.className = 'message ' + role;
            el.textContent = text;
            messages.appendChild(el);
            messages.scrollTop = messages.scrollHeight;
            return el;
        }

        function addCitations(citations) {
            if (!citations || !citations.length) return;
            const el = document.createElement('div');
            el.className = 'message citations';
            el.textContent = citations.map(c => c.excerpt + ' (page ' + c.page_label + ')').join('\n\n');
            messages.appendChild(el);
        }

        function sendQuery(e) {
            e.preventDefault();
            const input = document.getElementById('query-input');
            const query = input.value.trim();
            if (!query) return;
            input.value = '';

            addMessage('user', query);
            const responseEl = addMessage('assistant', '');
            let fullResponse = '';

            // Start SSE streaming
            const eventSource = new EventSource('/api/query/stream?q=' + encodeURIComponent(query));
            eventSource.onmessage = function(event) {
                const data = JSON.parse(event.data);
                if (data.content) {
                    fullResponse += data.content;
                    responseEl.textContent = fullResponse;
                    messages.scrollTop = messages.scrollHeight;
                }
                if (data.done) {
                    eventSource.close();
                    if (data.error) {
                        responseEl.textContent = data.error;
                        responseEl.classList.add('error');
                        return;
                    }
                    addCitations(data.citations);
                }
            };
            eventSource.onerror = function() {
                eventSource.close();
                if (!fullResponse) {
                    responseEl.textContent = 'Connection error';
                    responseEl.classList.add('error');
                }
            };
        }

        async function clearHistory() {
            await fetch('/api/history/clear', {method: 'POST'});
            messages.innerHTML = '';
        }

        async function loadHistory() {
            const res = await fetch('/api/history');
            if (!res.ok) return;
            const body = await res.json();
            (body.turns || []).forEach(t => addMessage(t.role, t.content));
            if (body.document) {
                showStatus('Loaded ' + body.document.name + ' (' + body.document.pages + ' pages).');
            }
        }
        loadHistory();
    </script>
</body>
</html>`
